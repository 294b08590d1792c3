package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg := fromViper(viper.New())

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "GI", cfg.Workflow.IssuePrefix)
	assert.Equal(t, "GR", cfg.Workflow.ReceiptPrefix)
	assert.Equal(t, 10*time.Second, cfg.Workflow.LockTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.PubSub.Enabled())
	assert.Equal(t, "postgres://postgres:@localhost:5432/bodega?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_ValoresDeEntorno(t *testing.T) {
	v := viper.New()
	v.Set("DB_PORT", "6543")
	v.Set("DB_AUTO_MIGRATE", "true")
	v.Set("REDIS_ADDRESS", "redis:6379")
	v.Set("DOCUMENT_LOCK_TTL", "3s")
	v.Set("ISSUE_NUMBER_PREFIX", "SAL")
	v.Set("HTTP_PORT", "no-es-numero")

	cfg := fromViper(v)

	assert.Equal(t, 6543, cfg.DB.Port)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 3*time.Second, cfg.Workflow.LockTTL)
	assert.Equal(t, "SAL", cfg.Workflow.IssuePrefix)
	assert.Equal(t, 8080, cfg.HTTP.Port, "entero inválido vuelve al default")
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "bodega", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/bodega?sslmode=require", c.DSN())
}
