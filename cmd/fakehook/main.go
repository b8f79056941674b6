// Command fakehook serves an in-memory copy of the inventory webhook so patio
// can be run and demoed without the production service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/patio/internal/fakehook"
	"github.com/five82/patio/internal/logging"
	"github.com/five82/patio/internal/vehicle"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:8787", "listen address")
	token := flag.String("token", "", "bearer token required on every request (optional)")
	delay := flag.Duration("delay", 0, "latency added to every answer, e.g. 800ms")
	seed := flag.Bool("seed", true, "start with a few demo vehicles")
	level := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	lvl, err := logging.ParseLevel(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fakehook: %v\n", err)
		return 2
	}
	log := logging.NewWriter(os.Stderr, lvl)

	opts := fakehook.Options{
		Token:  *token,
		Delay:  *delay,
		Plates: demoPlates(),
		Logger: log,
	}
	if *seed {
		opts.Seed = demoVehicles()
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           fakehook.New(opts).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		log.Info("fakehook listening", "addr", *addr, "token_required", *token != "")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
		return 1
	}
	return 0
}

func demoPlates() map[string]fakehook.PlateInfo {
	return map[string]fakehook.PlateInfo{
		"RIO2A18": {ModelName: "HYUNDAI HB20 1.0", YearBuilt: 2020, ModelYear: 2021, Color: "Branco"},
		"SPX4E55": {ModelName: "TOYOTA COROLLA XEI", YearBuilt: 2019, ModelYear: 2019, Color: "Prata"},
		"QRT8C31": {ModelName: "HONDA CG 160 FAN", YearBuilt: 2022, ModelYear: 2022, Color: "Vermelho"},
	}
}

func demoVehicles() []vehicle.Vehicle {
	return []vehicle.Vehicle{
		{
			ID: "5f1c2a8e-0d43-4a5b-9e0f-2b7c1d9a6e01", ModelName: "CHEVROLET ONIX LT", Plate: "BRA2E19",
			Km: 38500, Price: 64900, Type: "Carro", YearBuilt: 2020, ModelYear: 2021,
			Fuel: "Flex", Color: "Preto", Interested: 3,
		},
		{
			ID: "9a7d6c5b-4e3f-4a21-8b0c-7d6e5f4a3b02", ModelName: "VOLKSWAGEN GOL 1.6", Plate: "KZT7741",
			Km: 92000, Price: 38500, Type: "Carro", YearBuilt: 2015, ModelYear: 2016,
			Fuel: "Flex", Color: "Branco", Note: "Único dono",
		},
		{
			ID: "3c2b1a09-8f7e-4d6c-a5b4-c3d2e1f0a903", ModelName: "YAMAHA FAZER 250", Plate: "PQM3B27",
			Km: 21000, Price: 17990, Type: "Moto", YearBuilt: 2021, ModelYear: 2021,
			Fuel: "Gasolina", Color: "Azul",
		},
	}
}
