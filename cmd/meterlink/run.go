package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sahasra-iot/meterlink/config"
	"github.com/sahasra-iot/meterlink/meterdata"
	"github.com/sahasra-iot/meterlink/mqtt"
	"github.com/sahasra-iot/meterlink/serial"
	"github.com/sahasra-iot/meterlink/session"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Collect readings on a schedule and publish them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			port, err := serial.Open(cfg.SerialSettings())
			if err != nil {
				return fmt.Errorf("open %s: %w", cfg.Device, err)
			}
			defer port.Close()
			port.SetLogger(logger)

			sess := session.New(port, cfg.SessionSettings())
			sess.SetLogger(logger)

			c := &collector{cfg: cfg, sess: sess, logger: logger}
			return c.run(cmd.Context())
		},
	}
}

// collector owns the periodic connect/read/disconnect cycle and the
// failure back-pressure around it: after max_consecutive_errors failed
// cycles it pauses for the recovery delay, after restart_threshold it
// gives up so the supervisor restarts the process.
type collector struct {
	cfg    *config.Config
	sess   *session.Session
	logger *zap.SugaredLogger

	publisher *mqtt.Publisher
	failures  int
}

func (c *collector) run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := quartz.NewStdScheduler()
	sched.Start(ctx)

	fatal := make(chan error, 1)
	cycleJob := job.NewFunctionJob(func(ctx context.Context) (bool, error) {
		if err := c.cycle(); err != nil {
			c.failures++
			c.logger.Errorw("collection cycle failed", "error", err, "consecutive", c.failures)
			if c.publisher != nil {
				_ = c.publisher.PublishError(err.Error())
			}
			if c.failures >= c.cfg.Collect.RestartThreshold {
				fatal <- fmt.Errorf("%d consecutive failures, giving up", c.failures)
				return false, err
			}
			if c.failures >= c.cfg.Collect.MaxConsecutiveErrors {
				c.logger.Warnf("backing off for %ds", c.cfg.Collect.RecoveryDelayS)
				time.Sleep(time.Duration(c.cfg.Collect.RecoveryDelayS) * time.Second)
			}
			return false, err
		}
		c.failures = 0
		return true, nil
	})

	interval := time.Duration(c.cfg.Collect.ReadIntervalS) * time.Second
	detail := quartz.NewJobDetail(cycleJob, quartz.NewJobKey("meter-read"))
	if err := sched.ScheduleJob(detail, quartz.NewSimpleTrigger(interval)); err != nil {
		return err
	}
	c.logger.Infof("collecting every %s from %s", interval, c.cfg.Device)

	select {
	case <-ctx.Done():
		c.logger.Info("shutting down")
	case err := <-fatal:
		sched.Stop()
		if c.publisher != nil {
			c.publisher.Close()
		}
		return err
	}
	sched.Stop()
	sched.Wait(ctx)
	if c.publisher != nil {
		c.publisher.Close()
	}
	return nil
}

func (c *collector) cycle() error {
	if err := c.sess.Connect(); err != nil {
		_ = c.sess.Disconnect() // clears the fault and releases the line
		return err
	}
	var rec meterdata.Record
	readErr := c.sess.ReadAll(&rec)
	_ = c.sess.Disconnect()
	if readErr != nil {
		return readErr
	}

	c.logger.Infow("reading complete",
		"serial", rec.SerialNumber,
		"kwh_import", rec.KWhImport,
		"errors", rec.ErrorCount)

	if c.cfg.MQTT.Enabled {
		if c.publisher == nil {
			// topic identity comes from the meter itself, so the publisher
			// can only exist after the first successful reading
			c.publisher = mqtt.New(c.cfg.MQTT, rec.SerialNumber, c.logger)
			if err := c.publisher.Connect(); err != nil {
				c.publisher = nil
				return err
			}
		}
		if err := c.publisher.PublishReading(&rec); err != nil {
			return err
		}
	}
	return nil
}
