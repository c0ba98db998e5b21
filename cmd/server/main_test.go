package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coupon-service/internal/config"
	"coupon-service/internal/database"
	"coupon-service/internal/kafka"
	"coupon-service/internal/logger"

	"github.com/DATA-DOG/go-sqlmock"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: "0", ShutdownTimeout: 1, AllowedOrigins: []string{"*"}},
		Database: config.DatabaseConfig{AutoMigrate: true},
		Logger:   config.LoggerConfig{Level: "error", Format: "json"},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func stubFactories(t *testing.T, cfg *config.Config, db *database.DB, dbErr error) {
	t.Helper()
	origLoad, origDB := loadConfig, dbConnect
	origProducer, origConsumer := newKafkaProducer, newKafkaConsumer
	t.Cleanup(func() {
		loadConfig, dbConnect = origLoad, origDB
		newKafkaProducer, newKafkaConsumer = origProducer, origConsumer
	})

	loadConfig = func() *config.Config { return cfg }
	dbConnect = func(*config.DatabaseConfig, *logger.Logger) (*database.DB, error) { return db, dbErr }
	newKafkaProducer = func(*config.KafkaConfig, *logger.Logger) (*kafka.Producer, error) {
		t.Fatalf("kafka producer must not be created when kafka is disabled")
		return nil, nil
	}
	newKafkaConsumer = func(*config.KafkaConfig, *logger.Logger) (*kafka.Consumer, error) {
		t.Fatalf("kafka consumer must not be created when kafka is disabled")
		return nil, nil
	}
}

func TestBuildApplication_Routes(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer sqlDB.Close()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS coupons").WillReturnResult(sqlmock.NewResult(0, 0))

	stubFactories(t, testConfig(), &database.DB{DB: sqlDB}, nil)

	app, err := buildApplication()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("schema was not ensured: %v", err)
	}

	cases := []struct {
		method string
		path   string
		body   string
		code   int
	}{
		{http.MethodGet, "/health/liveness", "", http.StatusOK},
		{http.MethodGet, "/coupon/not-a-uuid", "", http.StatusBadRequest},
		{http.MethodDelete, "/coupon/not-a-uuid", "", http.StatusBadRequest},
		{http.MethodPost, "/coupon", `{}`, http.StatusBadRequest},
		{http.MethodPut, "/coupon/123", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/rate-limit/status", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}

	for _, tc := range cases {
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
		if rr.Code != tc.code {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.code, rr.Code)
		}
	}
}

func TestBuildApplication_DBError(t *testing.T) {
	stubFactories(t, testConfig(), nil, errors.New("db down"))

	if _, err := buildApplication(); err == nil {
		t.Fatalf("expected error when database is unavailable")
	}
}

func TestBuildApplication_SchemaError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS coupons").WillReturnError(errors.New("permission denied"))
	mock.ExpectClose()

	stubFactories(t, testConfig(), &database.DB{DB: sqlDB}, nil)

	if _, err := buildApplication(); err == nil {
		t.Fatalf("expected schema error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected database to be closed: %v", err)
	}
}
