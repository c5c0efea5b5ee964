package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/draftboard/internal/adapters/repository"
	"github.com/okian/draftboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBDriver, convey.ShouldEqual, repository.DriverDuckDB)
			convey.So(cfg.DBPath, convey.ShouldEqual, "data.db")
			convey.So(cfg.LeagueID, convey.ShouldEqual, 49439)
			convey.So(cfg.UpstreamTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with a single bad value", t, func() {
		cases := map[string]func(*config.Config){
			"addr must not be empty":               func(c *config.Config) { c.Addr = " " },
			"db_driver must be":                    func(c *config.Config) { c.DBDriver = "postgres" },
			"league_id must be positive":           func(c *config.Config) { c.LeagueID = 0 },
			"upstream_base_url must not be empty":  func(c *config.Config) { c.UpstreamBaseURL = "" },
			"upstream_timeout_ms must be positive": func(c *config.Config) { c.UpstreamTimeoutMS = 0 },
			"upstream_max_retries must not be":     func(c *config.Config) { c.UpstreamMaxRetries = -1 },
			"max_leaderboard_limit must be":        func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
		}

		for msg, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, msg)
		}
	})

	convey.Convey("Given each driver the store supports", t, func() {
		for _, driver := range repository.Drivers() {
			cfg := config.New()
			cfg.DBDriver = driver

			convey.So(cfg.Validate(), convey.ShouldBeNil)
		}
	})
}
