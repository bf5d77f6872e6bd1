package approval

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bots-empire/referral-bank/internal/model"
	"github.com/bots-empire/referral-bank/internal/store"
)

type memoryStore struct {
	users  map[string]model.User
	proofs map[string]model.PaymentProof
}

func newStore(userIDs ...string) *memoryStore {
	memory := &memoryStore{
		users:  map[string]model.User{},
		proofs: map[string]model.PaymentProof{},
	}
	for _, id := range userIDs {
		memory.users[id] = model.User{ID: id}
	}

	return memory
}

func (m *memoryStore) GetUser(_ context.Context, id string) (model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return model.User{}, store.ErrUserNotFound
	}

	return user, nil
}

func (m *memoryStore) CreateProof(_ context.Context, proof model.PaymentProof) (model.PaymentProof, error) {
	m.proofs[proof.ID] = proof
	return proof, nil
}

func (m *memoryStore) PendingProofs(_ context.Context) ([]model.PaymentProof, error) {
	pending := make([]model.PaymentProof, 0)
	for _, proof := range m.proofs {
		if proof.Status == model.ProofPending {
			pending = append(pending, proof)
		}
	}

	return pending, nil
}

func (m *memoryStore) ApproveProof(_ context.Context, proofID, depositID string) (model.PaymentProof, error) {
	return m.resolve(proofID, model.ProofApproved, depositID)
}

func (m *memoryStore) RejectProof(_ context.Context, proofID string) (model.PaymentProof, error) {
	return m.resolve(proofID, model.ProofRejected, "")
}

func (m *memoryStore) resolve(proofID, status, depositID string) (model.PaymentProof, error) {
	proof, ok := m.proofs[proofID]
	if !ok {
		return model.PaymentProof{}, store.ErrProofNotFound
	}

	if proof.Status == status {
		return proof, nil
	}
	if proof.Status != model.ProofPending {
		return model.PaymentProof{}, store.ErrProofResolved
	}

	proof.Status = status
	proof.DepositID = depositID
	m.proofs[proofID] = proof

	return proof, nil
}

func (m *memoryStore) Stats(_ context.Context) (model.AdminStats, error) {
	return model.AdminStats{TotalUsers: len(m.users)}, nil
}

// recordingDistributor remembers every deposit id it saw and replays ids it
// already distributed, like the real engine does.
type recordingDistributor struct {
	calls []string
	seen  map[string]bool
}

func newDistributor() *recordingDistributor {
	return &recordingDistributor{seen: map[string]bool{}}
}

func (d *recordingDistributor) Distribute(_ context.Context, depositID, userID string, amount decimal.Decimal) (model.DistributionResult, error) {
	d.calls = append(d.calls, depositID)

	result := model.DistributionResult{
		DepositID: depositID,
		UserID:    userID,
		Amount:    amount,
		Replayed:  d.seen[depositID],
	}
	d.seen[depositID] = true

	return result, nil
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestSubmitProof(t *testing.T) {
	memory := newStore("u1")
	srv := NewService(memory, newDistributor())

	proof, err := srv.SubmitProof(context.Background(), "u1", dec("500"), "https://cdn/proof.png")
	require.NoError(t, err)
	require.Equal(t, model.ProofPending, proof.Status)
	require.NotEmpty(t, proof.ID)

	pending, err := srv.PendingProofs(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestSubmitProofValidation(t *testing.T) {
	srv := NewService(newStore("u1"), newDistributor())

	_, err := srv.SubmitProof(context.Background(), "u1", dec("0"), "")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = srv.SubmitProof(context.Background(), "ghost", dec("10"), "")
	require.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestApproveDistributesOnce(t *testing.T) {
	memory := newStore("u1")
	dist := newDistributor()
	srv := NewService(memory, dist)

	proof, err := srv.SubmitProof(context.Background(), "u1", dec("500"), "")
	require.NoError(t, err)

	result, err := srv.Approve(context.Background(), proof.ID)
	require.NoError(t, err)
	require.False(t, result.Replayed)
	require.Len(t, dist.calls, 1)
	require.Equal(t, model.ProofApproved, memory.proofs[proof.ID].Status)
	require.Equal(t, result.DepositID, memory.proofs[proof.ID].DepositID)
}

func TestApproveRetryReusesDepositID(t *testing.T) {
	memory := newStore("u1")
	dist := newDistributor()
	srv := NewService(memory, dist)

	proof, err := srv.SubmitProof(context.Background(), "u1", dec("500"), "")
	require.NoError(t, err)

	first, err := srv.Approve(context.Background(), proof.ID)
	require.NoError(t, err)

	second, err := srv.Approve(context.Background(), proof.ID)
	require.NoError(t, err)

	require.Equal(t, first.DepositID, second.DepositID)
	require.True(t, second.Replayed)
	require.Len(t, dist.calls, 2)
	require.Equal(t, dist.calls[0], dist.calls[1])
}

func TestRejectThenApprove(t *testing.T) {
	memory := newStore("u1")
	dist := newDistributor()
	srv := NewService(memory, dist)

	proof, err := srv.SubmitProof(context.Background(), "u1", dec("500"), "")
	require.NoError(t, err)

	_, err = srv.Reject(context.Background(), proof.ID)
	require.NoError(t, err)

	_, err = srv.Approve(context.Background(), proof.ID)
	require.ErrorIs(t, err, store.ErrProofResolved)
	require.Empty(t, dist.calls)
}

func TestApproveUnknownProof(t *testing.T) {
	srv := NewService(newStore(), newDistributor())

	_, err := srv.Approve(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrProofNotFound)
}
