package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug                 = "debug"
	ConfigBoardSize             = "board-size"
	ConfigKomi                  = "komi"
	ConfigPlayouts              = "playouts"
	ConfigSeed                  = "seed"
	ConfigMaxPlayoutMovesFactor = "max-playout-moves-factor"
	ConfigKoRecaptureLimit      = "ko-recapture-limit"
	ConfigPriorAtariEscape      = "prior-atari-escape"
	ConfigPriorAtariCapture     = "prior-atari-capture"
	ConfigPriorOpening          = "prior-opening"
	ConfigPriorEyeFill          = "prior-eye-fill"
	ConfigPriorVisits           = "prior-visits"
	ConfigHistoryDecay          = "history-decay"
	ConfigHistoryDepthWeight    = "history-depth-weight"
	ConfigExpandProbability     = "expand-probability"
	ConfigStopConfidence        = "stop-confidence"
	ConfigNegamaxDepth          = "negamax-depth"
	ConfigTTFractionOfMem       = "tt-fraction-of-mem"
	ConfigSearchLog             = "search-log"
	ConfigAutoplayGames         = "autoplay-games"
	ConfigAutoplayThreads       = "autoplay-threads"
	ConfigAutoplayOutput        = "autoplay-output"
	ConfigAutoplayAnalyze       = "autoplay-analyze"
	ConfigInteractive           = "interactive"
	ConfigFile                  = "config"
)

// Config wraps viper. Values come from (in increasing priority) defaults,
// an optional config file, GOBAN_* environment variables and flags.
type Config struct {
	*viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigBoardSize, 19)
	v.SetDefault(ConfigKomi, 6.5)
	v.SetDefault(ConfigPlayouts, 1000)
	v.SetDefault(ConfigSeed, 1)
	v.SetDefault(ConfigMaxPlayoutMovesFactor, 3)
	v.SetDefault(ConfigKoRecaptureLimit, 2)
	v.SetDefault(ConfigPriorAtariEscape, 10)
	v.SetDefault(ConfigPriorAtariCapture, 10)
	v.SetDefault(ConfigPriorOpening, 4)
	v.SetDefault(ConfigPriorEyeFill, 40)
	v.SetDefault(ConfigPriorVisits, 10)
	v.SetDefault(ConfigHistoryDecay, 0.5)
	v.SetDefault(ConfigHistoryDepthWeight, 0.8)
	v.SetDefault(ConfigExpandProbability, 0.0)
	v.SetDefault(ConfigStopConfidence, 0)
	v.SetDefault(ConfigNegamaxDepth, 3)
	v.SetDefault(ConfigTTFractionOfMem, 0.001)
	v.SetDefault(ConfigSearchLog, "")
	v.SetDefault(ConfigAutoplayGames, 10)
	v.SetDefault(ConfigAutoplayThreads, 4)
	v.SetDefault(ConfigAutoplayOutput, "/tmp/goban-autoplay.csv")
	v.SetDefault(ConfigAutoplayAnalyze, "")
	v.SetDefault(ConfigInteractive, false)
}

// Load loads the configuration from the command-line arguments, the
// environment and an optional config file.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	setDefaults(c.Viper)

	fs := pflag.NewFlagSet("goban", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging and board consistency checks")
	fs.Int(ConfigBoardSize, 19, "initial board size")
	fs.Float64(ConfigKomi, 6.5, "komi given to white")
	fs.Int(ConfigPlayouts, 1000, "number of MCTS playouts per generated move")
	fs.Uint64(ConfigSeed, 1, "random seed for the searcher; 0 picks a random one")
	fs.Int(ConfigMaxPlayoutMovesFactor, 3, "playouts stop after factor*N*N moves")
	fs.Int(ConfigKoRecaptureLimit, 2, "consecutive ko recaptures allowed during a playout")
	fs.Int(ConfigPriorAtariEscape, 10, "prior wins for escaping atari")
	fs.Int(ConfigPriorAtariCapture, 10, "prior wins for capturing a chain in atari")
	fs.Int(ConfigPriorOpening, 4, "prior wins for 3rd/4th line points on an empty board")
	fs.Int(ConfigPriorEyeFill, 40, "prior losses for filling an own eye")
	fs.Int(ConfigPriorVisits, 10, "visits every prior is expressed over")
	fs.Float64(ConfigHistoryDecay, 0.5, "decay applied to the history table between searches")
	fs.Float64(ConfigHistoryDepthWeight, 0.8, "history credit is multiplied by this for every ply deeper in the tree")
	fs.Float64(ConfigExpandProbability, 0, "probability of growing the tree early; 0 derives it from the board size")
	fs.Int(ConfigStopConfidence, 0, "stop a search early when the best move is ahead at this confidence (95, 98 or 99); 0 never stops early")
	fs.Int(ConfigNegamaxDepth, 3, "depth of the alpha-beta solver")
	fs.Float64(ConfigTTFractionOfMem, 0.001, "fraction of system memory for the alpha-beta transposition table")
	fs.String(ConfigSearchLog, "", "write a YAML summary of every search to this file")
	fs.Int(ConfigAutoplayGames, 10, "number of self-play games for autoplay")
	fs.Int(ConfigAutoplayThreads, 4, "concurrent autoplay games")
	fs.String(ConfigAutoplayOutput, "/tmp/goban-autoplay.csv", "autoplay result log")
	fs.String(ConfigAutoplayAnalyze, "", "summarize an existing autoplay result log instead of playing")
	fs.Bool(ConfigInteractive, false, "use a readline prompt instead of raw stdin")
	fs.String(ConfigFile, "", "optional config file (yaml, toml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix("goban")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if cf := c.GetString(ConfigFile); cf != "" {
		c.SetConfigFile(cf)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cf, err)
		}
	}
	return nil
}

// SanitizedSettings returns the settings for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}

// DefaultConfig returns a config holding only the defaults.
func DefaultConfig() *Config {
	c := &Config{}
	c.Viper = viper.New()
	setDefaults(c.Viper)
	return c
}
