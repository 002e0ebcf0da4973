package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/wrestlerank/internal/config"
	"github.com/okian/wrestlerank/internal/domain/evaluation"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"WRESTLERANK_CONFIG", "WRESTLERANK_ADDR", "WRESTLERANK_TAUS", "WRESTLERANK_PERSIST_TAU",
	"WRESTLERANK_SOURCE_DSN", "WRESTLERANK_WORKERS", "WRESTLERANK_LOG_LEVEL",
	"WRESTLERANK_TRAIN_END", "WRESTLERANK_EVAL_MODE", "WRESTLERANK_CONNECT_TIMEOUT",
	"WRESTLERANK_START_DATE", "WRESTLERANK_END_DATE", "WRESTLERANK_HORIZON",
}

// clearConfigEnvVars unsets every variable a test may set and restores it afterwards.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, k := range configEnvVars {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	ctx := context.Background()
	noDotenv := config.WithEnvFile("")

	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars(t)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx, noDotenv)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.ConnectTimeout, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Persist, convey.ShouldBeTrue)
			convey.So(cfg.Metrics, convey.ShouldBeTrue)
		})

		convey.Convey("When environment variables are set", func() {
			t.Setenv("WRESTLERANK_ADDR", ":8080")
			t.Setenv("WRESTLERANK_TAUS", "0.3,0.5,0.9")
			t.Setenv("WRESTLERANK_WORKERS", "3")
			t.Setenv("WRESTLERANK_CONNECT_TIMEOUT", "5s")

			cfg, err := config.Load(ctx, noDotenv)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.Taus, convey.ShouldResemble, []float64{0.3, 0.5, 0.9})
			convey.So(cfg.Workers, convey.ShouldEqual, 3)
			convey.So(cfg.ConnectTimeout, convey.ShouldEqual, 5*time.Second)
		})

		convey.Convey("When a YAML file and env are both set, env wins", func() {
			path := writeFile(t, "config.yaml", `
addr: ":9090"
source_dsn: "file.db"
persist_tau: 0.7
taus: [0.4, 0.7]
eval_mode: frozen
`)
			t.Setenv("WRESTLERANK_CONFIG", path)
			t.Setenv("WRESTLERANK_ADDR", ":7070")

			cfg, err := config.Load(ctx, noDotenv)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.SourceDSN, convey.ShouldEqual, "file.db")
			convey.So(cfg.PersistTau, convey.ShouldEqual, 0.7)
			convey.So(cfg.Taus, convey.ShouldResemble, []float64{0.4, 0.7})
			convey.So(cfg.Mode(), convey.ShouldEqual, evaluation.Frozen)
			convey.So(cfg.SnapshotDSN, convey.ShouldEqual, "ratings.db")
		})

		convey.Convey("When a dotenv file is present it fills unset variables only", func() {
			t.Setenv("WRESTLERANK_ADDR", ":6060")
			dotenv := writeFile(t, ".env", "WRESTLERANK_ADDR=:5050\nWRESTLERANK_SOURCE_DSN=dotenv.db\n")
			defer func() { _ = os.Unsetenv("WRESTLERANK_SOURCE_DSN") }()

			cfg, err := config.Load(ctx, config.WithEnvFile(dotenv))
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			convey.So(cfg.SourceDSN, convey.ShouldEqual, "dotenv.db")
		})

		convey.Convey("When the dotenv file is missing it is skipped", func() {
			_, err := config.Load(ctx, config.WithEnvFile(filepath.Join(t.TempDir(), "missing.env")))
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("When the YAML file is invalid or missing", func() {
			t.Setenv("WRESTLERANK_CONFIG", writeFile(t, "bad.yaml", "invalid: yaml: content: ["))
			cfg, err := config.Load(ctx, noDotenv)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)

			t.Setenv("WRESTLERANK_CONFIG", "/non/existent/file.yaml")
			_, err = config.Load(ctx, noDotenv)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfigValidation(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given invalid settings", t, func() {
		clearConfigEnvVars(t)

		cases := map[string]string{
			"WRESTLERANK_LOG_LEVEL":   "chatty",
			"WRESTLERANK_PERSIST_TAU": "0",
			"WRESTLERANK_TAUS":        "0.5,-1",
			"WRESTLERANK_EVAL_MODE":   "batch",
			"WRESTLERANK_TRAIN_END":   "someday",
			"WRESTLERANK_START_DATE":  "2024/01/01",
			"WRESTLERANK_HORIZON":     "soon",
		}
		for key, value := range cases {
			t.Setenv(key, value)
			_, err := config.Load(ctx, config.WithEnvFile(""))
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = os.Unsetenv(key)
		}
	})

	convey.Convey("Given date bounds", t, func() {
		cfg := config.New(ctx)
		cfg.StartDate = "2023-01-01"
		cfg.EndDate = "2023-06-30"
		cfg.TrainEnd = "2023-03-31"
		cfg.Horizon = "2023-09"

		start, end, err := cfg.MatchRange()
		convey.So(err, convey.ShouldBeNil)
		convey.So(start.Format(time.RFC3339), convey.ShouldEqual, "2023-01-01T00:00:00Z")
		convey.So(end.Format(time.RFC3339Nano), convey.ShouldEqual, "2023-06-30T23:59:59.999999999Z")

		w, err := cfg.Window()
		convey.So(err, convey.ShouldBeNil)
		convey.So(w.TrainEnd.Format(time.DateOnly), convey.ShouldEqual, "2023-03-31")
		convey.So(w.EvalStart.IsZero(), convey.ShouldBeTrue)

		h, err := cfg.HorizonMonth()
		convey.So(err, convey.ShouldBeNil)
		convey.So(h.String(), convey.ShouldEqual, "2023-09")
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
