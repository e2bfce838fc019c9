// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agorasim/api/schemas"
	"github.com/xkilldash9x/agorasim/internal/config"
	"github.com/xkilldash9x/agorasim/internal/engine"
	"github.com/xkilldash9x/agorasim/internal/graph"
	"github.com/xkilldash9x/agorasim/internal/observability"
	"github.com/xkilldash9x/agorasim/internal/policy"
	"github.com/xkilldash9x/agorasim/internal/trace"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs a simulation over the configured agent population",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags so command-line values override config file and
			// environment with the right precedence.
			if err := viper.BindPFlag("simulation.profile_file", cmd.Flags().Lookup("profiles")); err != nil {
				return err
			}
			if err := viper.BindPFlag("simulation.rounds", cmd.Flags().Lookup("rounds")); err != nil {
				return err
			}
			if err := viper.BindPFlag("policy.provider", cmd.Flags().Lookup("provider")); err != nil {
				return err
			}
			if err := viper.BindPFlag("trace.backend", cmd.Flags().Lookup("trace")); err != nil {
				return err
			}
			return viper.BindPFlag("trace.path", cmd.Flags().Lookup("trace-path"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			if cfg.Simulation.ProfileFile == "" {
				return fmt.Errorf("simulation.profile_file is required (set --profiles)")
			}

			return runSimulation(ctx, cfg, logger)
		},
	}

	runCmd.Flags().String("profiles", "", "agent profile file (JSON array of agents)")
	runCmd.Flags().Int("rounds", 10, "number of rounds to simulate")
	runCmd.Flags().String("provider", "scripted", "decision policy provider (scripted, gemini)")
	runCmd.Flags().String("trace", "jsonl", "trace sink backend (jsonl, postgres, memory)")
	runCmd.Flags().String("trace-path", "trace.jsonl", "output path for the jsonl trace backend")
	return runCmd
}

// runSimulation wires the population, policy gateway, and trace sink into a
// simulation and drives it for the configured number of rounds.
func runSimulation(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	g, err := graph.LoadFromFile(cfg.Simulation.ProfileFile, logger)
	if err != nil {
		return fmt.Errorf("failed to load agent population: %w", err)
	}
	if g.Len() == 0 {
		return fmt.Errorf("profile file %s holds no agents", cfg.Simulation.ProfileFile)
	}

	gateway, err := buildGateway(cfg, logger)
	if err != nil {
		return err
	}

	sink, cleanup, err := buildTraceSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sim, err := engine.New(cfg, logger, g, gateway, sink)
	if err != nil {
		return fmt.Errorf("failed to build simulation: %w", err)
	}
	defer func() {
		if closeErr := sim.Close(context.WithoutCancel(ctx)); closeErr != nil {
			logger.Error("Failed to close simulation", zap.Error(closeErr))
		}
	}()

	// Every agent gets one policy-driven request per round.
	requests := make(map[schemas.AgentID][]schemas.ActionRequest, g.Len())
	for _, profile := range g.Agents() {
		requests[profile.ID] = []schemas.ActionRequest{schemas.PolicyRequest()}
	}

	for round := 1; round <= cfg.Simulation.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("Simulation aborted", zap.Int("completed_rounds", round-1))
			return context.Canceled
		}

		outcomes, err := sim.Step(ctx, requests)
		if err != nil {
			return fmt.Errorf("round %d failed: %w", round, err)
		}

		var applied, failed int
		for _, perAgent := range outcomes {
			for _, o := range perAgent {
				if o.Status == schemas.OutcomeSuccess {
					applied++
				} else {
					failed++
				}
			}
		}
		logger.Info("Round report",
			zap.Int("round", round),
			zap.Int("applied", applied),
			zap.Int("failed", failed),
			zap.Int("posts", sim.Store().PostCount()),
		)
	}

	logger.Info("Simulation complete",
		zap.Int("rounds", cfg.Simulation.Rounds),
		zap.Int("agents", g.Len()),
		zap.Int("posts", sim.Store().PostCount()),
	)
	return nil
}

// buildGateway selects the decision policy backend.
func buildGateway(cfg *config.Config, logger *zap.Logger) (schemas.PolicyGateway, error) {
	switch cfg.Policy.Provider {
	case config.ProviderScripted:
		return policy.NewScriptedGateway(nil), nil
	case config.ProviderGemini:
		client, err := policy.NewGeminiClient(cfg.Policy.LLM, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build gemini client: %w", err)
		}
		return policy.NewLLMGateway(client, cfg.Policy, logger), nil
	default:
		return nil, fmt.Errorf("unknown policy provider %q", cfg.Policy.Provider)
	}
}

// buildTraceSink selects the persistence backend for action records. The
// returned cleanup releases backend resources the sink does not own.
func buildTraceSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (schemas.TraceSink, func(), error) {
	noop := func() {}
	switch cfg.Trace.Backend {
	case config.TraceBackendJSONL:
		sink, err := trace.NewJSONLSink(cfg.Trace.Path, cfg.Trace.BufferSize, logger)
		if err != nil {
			return nil, noop, err
		}
		return sink, noop, nil
	case config.TraceBackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Trace.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create database pool: %w", err)
		}
		sink, err := trace.NewPostgresSink(ctx, pool, cfg.Trace.BufferSize, logger)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return sink, pool.Close, nil
	case config.TraceBackendMemory:
		return trace.NewMemorySink(), noop, nil
	default:
		return nil, noop, errors.New("unknown trace backend")
	}
}
