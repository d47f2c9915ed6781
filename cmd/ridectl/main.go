package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ssneflow/scootflow/internal/config"
	"github.com/ssneflow/scootflow/internal/fleet"
	"github.com/ssneflow/scootflow/internal/reliability"
	"github.com/ssneflow/scootflow/internal/rentalapi"
	"github.com/ssneflow/scootflow/internal/ride"
	"github.com/ssneflow/scootflow/internal/telemetry"
)

type options struct {
	baseURL string
	user    string
	minutes int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var opts options
	flag.StringVar(&opts.baseURL, "url", cfg.APIBaseURL, "rental service base URL")
	flag.StringVar(&opts.user, "user", cfg.RiderName, "rider name")
	flag.IntVar(&opts.minutes, "minutes", 10, "minutes to commit to when booking")
	flag.Parse()

	client := rentalapi.New(opts.baseURL)
	ctx := context.Background()

	vehicles, err := listWithRetry(ctx, client)
	if err != nil {
		log.Fatalf("rental service unreachable at %s: %v", opts.baseURL, err)
	}

	fmt.Println("Available scooters:")
	for _, v := range vehicles {
		fmt.Printf("  %d  %-12s %s\n", v.ID, v.Location, v.Status)
	}

	in := bufio.NewScanner(os.Stdin)
	vehicle, ok := chooseVehicle(in, vehicles)
	if !ok {
		return
	}
	fmt.Printf("Estimated fare for %d min: %.2f\n", opts.minutes, fleet.Estimate(opts.minutes))

	machine := ride.NewMachine(client, opts.user, cfg.TickInterval)
	machine.SetNotify(printProgress)

	poller := telemetry.NewPoller(client, cfg.PollInterval, printPosition, func(telemetry.Report) {
		fmt.Println("Live tracking online.")
	})

	snap, err := machine.Begin(ctx, vehicle, opts.minutes*60)
	if err != nil {
		log.Fatalf("could not start ride: %v", err)
	}
	fmt.Printf("Ride started on scooter %d (booking %s).\n", snap.VehicleID, snap.BookingID)
	fmt.Println("Commands: [c]ontinue past committed time, [e]nd ride, [q]uit")

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	poller.Start(pollCtx)

	for in.Scan() {
		switch strings.ToLower(strings.TrimSpace(in.Text())) {
		case "c":
			if _, err := machine.ContinueRide(); err != nil {
				fmt.Printf("cannot continue: %v\n", err)
				continue
			}
			fmt.Println("Overtime acknowledged, ride continues.")
		case "e":
			snap, err := machine.End(ctx)
			if err != nil {
				// The clock stays running; the rider can retry ending.
				fmt.Printf("end ride failed, still riding: %v\n", err)
				continue
			}
			poller.Stop()
			settle(ctx, in, machine, snap)
			return
		case "q":
			fmt.Println("Leaving the ride running. Run again to end it from the service side.")
			return
		default:
			fmt.Println("Commands: [c]ontinue, [e]nd, [q]uit")
		}
	}
}

func listWithRetry(ctx context.Context, client *rentalapi.Client) ([]ride.Vehicle, error) {
	var lastErr error
	for attempt := 0; attempt < 4; attempt++ {
		if attempt > 0 {
			time.Sleep(reliability.ExponentialBackoff(attempt, 500*time.Millisecond, 5*time.Second))
		}
		vehicles, err := client.ListVehicles(ctx)
		if err == nil {
			return vehicles, nil
		}
		lastErr = err
		var statusErr *rentalapi.StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return nil, err
		}
		log.Printf("listing scooters failed (attempt %d): %v", attempt+1, err)
	}
	return nil, lastErr
}

func chooseVehicle(in *bufio.Scanner, vehicles []ride.Vehicle) (ride.Vehicle, bool) {
	for {
		fmt.Print("Scooter ID to book (empty to quit): ")
		if !in.Scan() {
			return ride.Vehicle{}, false
		}
		text := strings.TrimSpace(in.Text())
		if text == "" {
			return ride.Vehicle{}, false
		}
		id, err := strconv.Atoi(text)
		if err != nil {
			fmt.Println("Enter a numeric scooter ID.")
			continue
		}
		for _, v := range vehicles {
			if v.ID == id {
				return v, true
			}
		}
		fmt.Println("No such scooter in the listing.")
	}
}

func settle(ctx context.Context, in *bufio.Scanner, machine *ride.Machine, snap ride.Snapshot) {
	if snap.Settlement != nil {
		fmt.Printf("Ride ended: %d min, amount %.2f\n", snap.Settlement.DurationMins, snap.Settlement.Amount)
	}
	for {
		fmt.Print("Pay now? [y/n]: ")
		if !in.Scan() || strings.ToLower(strings.TrimSpace(in.Text())) != "y" {
			fmt.Println("Payment pending. The booking stays open until it is paid.")
			return
		}
		receipt, err := machine.Pay(ctx)
		if err != nil {
			fmt.Printf("payment failed: %v\n", err)
			continue
		}
		if receipt.Settlement != nil {
			fmt.Printf("Paid %.2f. Thanks for riding!\n", receipt.Settlement.Amount)
		} else {
			fmt.Println("Paid. Thanks for riding!")
		}
		return
	}
}

func printProgress(snap ride.Snapshot) {
	if snap.Phase != ride.PhaseRiding {
		return
	}
	if snap.OvertimeWarning {
		fmt.Printf("\r%s  OVER COMMITTED TIME, press c to continue or e to end", clock(snap.ElapsedSeconds))
		return
	}
	fmt.Printf("\r%s of %s committed", clock(snap.ElapsedSeconds), clock(snap.CommittedSeconds))
}

func printPosition(r telemetry.Report) {
	fmt.Printf("\n[%s] at %.6f, %.6f\n", r.ScooterID, r.Latitude, r.Longitude)
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
