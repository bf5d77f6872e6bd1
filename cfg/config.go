package cfg

import (
	"encoding/json"
	"log"
	"os"
)

const connectionsPath = "./cfg/connections.json"

type DataBaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
}

type connections struct {
	DataBase    DataBaseConfig `json:"database"`
	Redis       RedisConfig    `json:"redis"`
	MetricsPort string         `json:"metrics_port"`
}

var (
	DBCfg       DataBaseConfig
	RedisCfg    RedisConfig
	MetricsPort = "7011"
)

func UploadConnections() {
	bytes, err := os.ReadFile(connectionsPath)
	if err != nil {
		log.Fatal(err)
	}

	var conns connections
	if err := json.Unmarshal(bytes, &conns); err != nil {
		panic(err)
	}

	DBCfg = conns.DataBase
	RedisCfg = conns.Redis
	if conns.MetricsPort != "" {
		MetricsPort = conns.MetricsPort
	}
}
