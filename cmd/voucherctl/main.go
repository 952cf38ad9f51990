// Command voucherctl parses voucher PDFs from the terminal without the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"voucher-service/internal/infrastructure/pdftext"
	"voucher-service/pkg/logger"
	"voucher-service/pkg/voucher"

	"github.com/abiiranathan/goflag"
)

type cliConfig struct {
	File            string
	Booking         string
	ArrivalPrefix   string
	DeparturePrefix string
	Workers         int
	TimeoutSeconds  int
	LogLevel        string
}

var config = &cliConfig{
	Workers:        4,
	TimeoutSeconds: 30,
}

func main() {
	log.SetPrefix("[voucherctl]: ")
	log.SetFlags(0)

	ctx := defineFlags(config)
	subcmd, err := ctx.Parse(os.Args)
	if err != nil {
		log.Fatalln(err)
	}

	if subcmd == nil {
		ctx.PrintUsage(os.Stdout)
		os.Exit(1)
	}

	subcmd.Handler()
}

func defineFlags(config *cliConfig) *goflag.Context {
	fileFlag := goflag.Flag{
		FlagType:  goflag.FlagFilePath,
		Name:      "file",
		ShortName: "f",
		Value:     &config.File,
		Usage:     "The voucher PDF to read",
		Required:  true,
	}

	ctx := goflag.NewContext()

	// global flags
	ctx.AddFlag(goflag.FlagInt, "workers", "w", &config.Workers,
		"Number of concurrent page extractors", false, goflag.Min(1), goflag.Max(64))
	ctx.AddFlag(goflag.FlagInt, "timeout", "t", &config.TimeoutSeconds,
		"Conversion timeout in seconds", false, goflag.Min(1))
	ctx.AddFlag(goflag.FlagString, "log-level", "l", &config.LogLevel,
		"Log parser decisions at this level (debug, info, warn)", false)

	ctx.AddSubCommand("parse", "Extract one booking from a voucher PDF", func() {
		pages := mustExtract(config)
		parser := voucher.NewParser(cliLogger(config))

		res, err := parser.Parse(pages, config.Booking, voucher.Options{
			ArrivalPrefix:   config.ArrivalPrefix,
			DeparturePrefix: config.DeparturePrefix,
		})
		if errors.Is(err, voucher.ErrBookingNotFound) {
			log.Fatalf("booking %s not found in %s\n", config.Booking, config.File)
		}
		if err != nil {
			log.Fatalln(err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatalln(err)
		}
	}).AddFlagPtr(&fileFlag).
		AddFlag(goflag.FlagString, "booking", "b", &config.Booking, "The booking number to look up", true).
		AddFlag(goflag.FlagString, "arrival", "a", &config.ArrivalPrefix, "Arrival flight number prefix", false).
		AddFlag(goflag.FlagString, "departure", "d", &config.DeparturePrefix, "Departure flight number prefix", false)

	ctx.AddSubCommand("index", "List booking numbers and the pages they appear on", func() {
		ix := voucher.NewIndex(mustExtract(config))
		for _, token := range ix.Tokens() {
			fmt.Printf("%s pages: %s\n", token, pageList(ix.Lookup(token)))
		}
		fmt.Printf("%d booking numbers\n", ix.Len())
	}).AddFlagPtr(&fileFlag)

	return ctx
}

func mustExtract(config *cliConfig) []voucher.Page {
	data, err := os.ReadFile(config.File)
	if err != nil {
		log.Fatalln(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.TimeoutSeconds)*time.Second)
	defer cancel()

	pages, err := pdftext.NewPDFExtractor(config.Workers, cliLogger(config)).Extract(ctx, data)
	if err != nil {
		log.Fatalf("could not read %s: %v\n", config.File, err)
	}
	return pages
}

func cliLogger(config *cliConfig) logger.Logger {
	if config.LogLevel != "" {
		return logger.NewLogger(config.LogLevel)
	}
	return logger.NewNopLogger()
}

func pageList(pages []voucher.Page) string {
	nums := make([]string, len(pages))
	for i, p := range pages {
		nums[i] = fmt.Sprint(p.Number)
	}
	return strings.Join(nums, ",")
}
