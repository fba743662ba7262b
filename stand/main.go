package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/itohio/thruststand/pkg/clock"
	"github.com/itohio/thruststand/pkg/config"
	"github.com/itohio/thruststand/pkg/controller"
	"github.com/itohio/thruststand/pkg/meter"
	"github.com/itohio/thruststand/pkg/mqttbridge"
	"github.com/itohio/thruststand/pkg/recorder"
	"github.com/itohio/thruststand/pkg/sample"
	"github.com/itohio/thruststand/pkg/sensor"
	"github.com/itohio/thruststand/pkg/telemetry"
	flag "github.com/spf13/pflag"
)

func main() {
	var (
		configFlag    = flag.StringP("config", "c", "config.yaml", "Configuration file path")
		portFlag      = flag.StringP("port", "p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		mockFlag      = flag.Bool("mock", false, "Use simulated stand instead of serial port")
		listPortsFlag = flag.Bool("list-ports", false, "List serial ports and exit")
		listenFlag    = flag.String("listen", "", "Telemetry listen address override (e.g., :8081)")
		verboseFlag   = flag.BoolP("verbose", "v", false, "Print one line per control cycle")
	)
	flag.Parse()

	if *listPortsFlag {
		listPorts()
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *listenFlag != "" {
		cfg.Telemetry.Listen = *listenFlag
	}
	if *verboseFlag {
		cfg.Loop.Verbose = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.Real{}

	// Sensors and storage are required; failing either halts the stand.
	var device sensor.Device
	if *mockFlag {
		device = sensor.NewMock(&cfg.Mock, cfg.Sensor.ThrustFullScale)
		log.Printf("Using simulated stand")
	} else {
		device = sensor.New(cfg.Serial.Port, cfg.Serial.BaudRate, sensor.DefaultBufferSize)
	}
	if err := device.Connect(); err != nil {
		log.Fatalf("Failed to connect to acquisition board: %v", err)
	}

	stand := sensor.NewStand(device, clk, cfg.Sensor)
	stand.Start()
	defer stand.Close()

	readyCtx, cancelReady := context.WithTimeout(ctx, cfg.Sensor.ReadyTimeout)
	err = stand.WaitReady(readyCtx)
	cancelReady()
	if err != nil {
		stand.Close()
		log.Fatalf("Sensors not ready: %v", err)
	}

	acq, err := sample.New(stand, cfg.Sensor.SeaLevelHPa)
	if err != nil {
		stand.Close()
		log.Fatalf("Failed to initialise altitude baseline: %v", err)
	}
	log.Printf("Altitude baseline %.2f m", acq.Baseline())

	rec, err := recorder.Open(cfg.Recorder.Dir, cfg.Recorder.Prefix, clk, cfg.Recorder.FlushInterval)
	if err != nil {
		stand.Close()
		log.Fatalf("Failed to open flight log: %v", err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Printf("Failed to close flight log: %v", err)
		}
	}()

	session := meter.NewTestSession(clk)
	burn := meter.NewBurnDetector(cfg.Burn.Threshold)

	server, err := telemetry.NewServer(cfg.Telemetry, session)
	if err != nil {
		log.Fatalf("Failed to create telemetry server: %v", err)
	}
	publishers := []controller.Publisher{server}

	if cfg.MQTT.Enabled {
		dialCtx, cancelDial := context.WithTimeout(ctx, 5*time.Second)
		bridge, err := mqttbridge.Dial(dialCtx, cfg.MQTT, server.Codec(), session)
		cancelDial()
		if err != nil {
			log.Printf("MQTT bridge disabled: %v", err)
		} else {
			publishers = append(publishers, bridge)
			defer bridge.Close()
		}
	}

	ctrl := controller.New(clk, cfg.Loop.Period, acq, burn, session, rec, publishers...)
	ctrl.SetVerbose(cfg.Loop.Verbose)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(ctx); err != nil {
			log.Printf("Telemetry server stopped: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.Run(ctx)
	}()

	<-ctx.Done()
	log.Printf("Shutting down")
	wg.Wait()
}

func listPorts() {
	ports, err := sensor.Ports()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Println(p.Name)
	}
}
