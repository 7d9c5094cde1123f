package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"compassdial/internal/button"
	"compassdial/internal/config"
	"compassdial/internal/dial"
	"compassdial/internal/heading"
	"compassdial/internal/imu"
	"compassdial/internal/replay"
	"compassdial/internal/sim"
	"compassdial/internal/udp"
	"compassdial/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/dev.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	policy, err := heading.ParsePolicy(cfg.Sensor.Policy)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	policyName := cfg.Sensor.Policy
	if policyName == "" {
		policyName = "auto"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var meanings *dial.Meanings
	if cfg.Meanings.Path != "" {
		meanings, err = dial.LoadMeanings(cfg.Meanings.Path)
		if err != nil {
			log.Fatalf("meanings load failed: %v", err)
		}
		log.Printf("meanings loaded: %d entries from %s", meanings.Len(), cfg.Meanings.Path)
	}

	status := web.NewStatus()
	status.SetStatic(cfg.Sensor.Source, policyName)
	frames := web.NewDialBroadcaster()
	frames.SetAvailable(true)

	var sender *udp.Broadcaster
	if cfg.UDP.Enable {
		sender, err = udp.NewBroadcaster(cfg.UDP.Dest)
		if err != nil {
			log.Fatalf("udp broadcaster init failed: %v", err)
		}
		defer sender.Close()
		log.Printf("udp dest=%s interval=%s", cfg.UDP.Dest, cfg.UDP.Interval)
	}

	// lastUDP and lastUDPErr are only touched from the smoothing
	// goroutine (OnFrame runs there), so no locking.
	var lastUDP time.Time
	var lastUDPErr time.Time

	svc := heading.New(heading.Config{
		Policy:         policy,
		GainK:          cfg.Smoothing.Gain,
		SnapEpsilonDeg: cfg.Smoothing.SnapEpsilonDeg,
		OffsetDeg:      cfg.Calibration.OffsetDeg,
		FrameInterval:  cfg.Smoothing.FrameInterval,
		StaleAfter:     cfg.Smoothing.StaleAfter,
		OnFrame: func(f heading.Frame) {
			st := dial.Project(f.DisplayedDeg)
			df := web.DialFrame{
				Receiving:     f.Receiving,
				HeadingDeg:    st.HeadingDeg,
				TargetDeg:     f.TargetDeg,
				StartAngleRad: st.StartAngleRad,
				BigLabel:      st.BigLabel,
				SmallLabel:    st.SmallLabel,
				MeaningKey:    dial.MeaningKey(st.BigLabel, st.SmallLabel),
			}
			if m, ok := meanings.Resolve(st.BigLabel, st.SmallLabel); ok {
				df.Meaning = &m
			}
			status.SetFrame(f.Time, df)
			frames.Publish(status.LatestFrame())

			if sender != nil && f.Time.Sub(lastUDP) >= cfg.UDP.Interval {
				lastUDP = f.Time
				if err := sender.SendJSON(status.LatestFrame()); err != nil {
					if time.Since(lastUDPErr) > 5*time.Second {
						log.Printf("udp send failed: %v", err)
						lastUDPErr = time.Now()
					}
				}
			}
		},
	})
	if err := svc.Start(ctx); err != nil {
		log.Fatalf("heading service start failed: %v", err)
	}
	defer svc.Close()

	emit := svc.Offer
	if cfg.Record.Enable {
		rec, err := replay.CreateWriter(cfg.Record.Path)
		if err != nil {
			log.Fatalf("record init failed: %v", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Printf("record close failed: %v", err)
			}
		}()
		log.Printf("recording samples to %s", cfg.Record.Path)

		var lastRecErr time.Time
		offer := emit
		emit = func(smp heading.Sample) {
			if err := rec.WriteSample(time.Now(), smp); err != nil {
				if time.Since(lastRecErr) > 5*time.Second {
					log.Printf("record write failed: %v", err)
					lastRecErr = time.Now()
				}
			}
			offer(smp)
		}
	}

	runSource := func(name string, run func(context.Context, func(heading.Sample)) error) {
		go func() {
			err := run(ctx, emit)
			if err != nil && ctx.Err() == nil {
				log.Printf("%s source stopped: %v", name, err)
				cancel()
				return
			}
			if err == nil {
				// Replay without loop runs out of records; keep serving
				// the last frame rather than exiting.
				log.Printf("%s source finished", name)
			}
		}()
	}

	switch cfg.Sensor.Source {
	case "imu":
		src, err := imu.NewSource(imu.Config{
			I2CBus: cfg.Sensor.I2CBus,
			Addr:   cfg.Sensor.IMUAddr,
			Rate:   cfg.Sensor.Rate,
		})
		if err != nil {
			log.Fatalf("imu init failed: %v", err)
		}
		log.Printf("imu source on i2c bus %d", cfg.Sensor.I2CBus)
		runSource("imu", src.Run)
	case "sim":
		src := &sim.Source{
			Sim:  sim.HeadingSim{Period: cfg.Sim.Period},
			Rate: cfg.Sim.Rate,
		}
		log.Printf("sim source, period=%s", cfg.Sim.Period)
		runSource("sim", src.Run)
	case "replay":
		recs, err := replay.Load(cfg.Replay.Path)
		if err != nil {
			log.Fatalf("replay load failed: %v", err)
		}
		src := &replay.Source{Records: recs, Speed: cfg.Replay.Speed, Loop: cfg.Replay.Loop}
		log.Printf("replay source: %d records from %s (speed %gx, loop %v)",
			len(recs), cfg.Replay.Path, cfg.Replay.Speed, cfg.Replay.Loop)
		runSource("replay", src.Run)
	default:
		log.Fatalf("unknown sensor source %q", cfg.Sensor.Source)
	}

	if cfg.Calibration.Button.Enable {
		btn, err := button.New(button.Config{
			Pin:      cfg.Calibration.Button.GPIOPin,
			Debounce: cfg.Calibration.Button.Debounce,
		}, svc)
		if err != nil {
			log.Fatalf("button init failed: %v", err)
		}
		if err := btn.Start(); err != nil {
			log.Fatalf("button start failed: %v", err)
		}
		defer func() { _ = btn.Close() }()
	}

	srv := &http.Server{
		Addr:    cfg.Web.Listen,
		Handler: web.Handler(status, frames, meanings, svc),
	}
	go func() {
		log.Printf("web listening on %s", cfg.Web.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("web server stopped: %v", err)
			cancel()
		}
	}()

	log.Printf("compassdial starting: source=%s policy=%s", cfg.Sensor.Source, policyName)

	<-ctx.Done()
	log.Printf("compassdial stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
