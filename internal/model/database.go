package model

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/bots-empire/referral-bank/cfg"
	"github.com/bots-empire/referral-bank/db/local"
)

const dbDriver = "postgres"

func UploadDataBase() *sql.DB {
	dataBase, err := sql.Open(dbDriver, fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBCfg.Host,
		cfg.DBCfg.Port,
		cfg.DBCfg.User,
		cfg.DBCfg.Password,
		cfg.DBCfg.Name))
	if err != nil {
		log.Fatalf("Failed open database: %s\n", err.Error())
	}

	dataBase.SetMaxOpenConns(10)
	dataBase.SetConnMaxIdleTime(30 * time.Second)

	goose.SetBaseFS(local.EmbedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		panic(err)
	}

	if err := goose.Up(dataBase, "migrations"); err != nil {
		panic(err)
	}

	err = dataBase.Ping()
	if err != nil {
		log.Fatalf("Failed upload database: %s\n", err.Error())
	}

	return dataBase
}

func StartRedis() *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisCfg.Addr,
		Password: cfg.RedisCfg.Password,
		DB:       0, // use default DB
	})
	return rdb
}
