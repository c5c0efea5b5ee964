package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/draftboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DBDriver, convey.ShouldEqual, "duckdb")
				convey.So(cfg.LeagueID, convey.ShouldEqual, 49439)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DRAFTBOARD_ADDR", ":8080")
			_ = os.Setenv("DRAFTBOARD_DB_DRIVER", "sqlite3")
			_ = os.Setenv("DRAFTBOARD_DB_PATH", ":memory:")
			_ = os.Setenv("DRAFTBOARD_LEAGUE_ID", "1234")
			_ = os.Setenv("DRAFTBOARD_UPSTREAM_MAX_RETRIES", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DBDriver, convey.ShouldEqual, "sqlite3")
				convey.So(cfg.DBPath, convey.ShouldEqual, ":memory:")
				convey.So(cfg.LeagueID, convey.ShouldEqual, 1234)
				convey.So(cfg.UpstreamMaxRetries, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
# league under watch
addr: ":9090"
league_id: 777
db_path: "standings.duckdb"
pushgateway_url: "http://pushgateway:9091"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DRAFTBOARD_CONFIG", tmpFile)
			_ = os.Setenv("DRAFTBOARD_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LeagueID, convey.ShouldEqual, 777)
				convey.So(cfg.DBPath, convey.ShouldEqual, "standings.duckdb")
				convey.So(cfg.PushgatewayURL, convey.ShouldEqual, "http://pushgateway:9091")
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DRAFTBOARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("DRAFTBOARD_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown driver", func() {
			_ = os.Setenv("DRAFTBOARD_DB_DRIVER", "postgres")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("DRAFTBOARD_LEAGUE_ID", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"DRAFTBOARD_CONFIG",
		"DRAFTBOARD_ADDR",
		"DRAFTBOARD_DB_DRIVER",
		"DRAFTBOARD_DB_PATH",
		"DRAFTBOARD_LEAGUE_ID",
		"DRAFTBOARD_UPSTREAM_MAX_RETRIES",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "draftboard-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
