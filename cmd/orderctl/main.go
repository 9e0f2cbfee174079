package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/storefront-orders/internal/client"
	"github.com/ariefcatur/storefront-orders/internal/console"
	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

const usage = `usage: orderctl [flags] <command> [args]

commands:
  list [status,...]        admin order board with available actions
  update <order_id> <action>  apply confirm|ongoing|delivered|rto|reject
  pay <order_id> <status>  record payment_status (paid|success|failed)
  track                    customer orders with progress
  cancel <order_id>        customer cancel
`

func main() {
	_ = godotenv.Load()

	api := flag.String("api", envOr("ORDERCTL_API", "http://localhost:8081"), "API base URL")
	user := flag.String("user", os.Getenv("ORDERCTL_USER"), "customer id for track/cancel")
	key := flag.String("admin-key", os.Getenv("ORDERCTL_ADMIN_KEY"), "admin bearer key")
	limit := flag.Int("limit", 50, "page size for list")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*api, client.WithUserID(*user), client.WithAdminKey(*key))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	args := flag.Args()
	var err error
	switch args[0] {
	case "list":
		opts := client.ListOptions{Limit: *limit}
		if len(args) > 1 {
			opts.Status = strings.Split(args[1], ",")
		}
		err = list(ctx, console.NewBoard(c, opts))
	case "update":
		if len(args) != 3 {
			flag.Usage()
			os.Exit(2)
		}
		err = update(ctx, c, args[1], args[2])
	case "pay":
		if len(args) != 3 {
			flag.Usage()
			os.Exit(2)
		}
		_, err = c.RecordPayment(ctx, args[1], args[2])
		if err == nil {
			fmt.Printf("payment recorded for %s\n", args[1])
		}
	case "track":
		err = track(ctx, console.NewTracker(c))
	case "cancel":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		tr := console.NewTracker(c)
		if err = tr.Refresh(ctx); err == nil {
			err = tr.Cancel(ctx, args[1])
		}
		if err == nil {
			fmt.Printf("order %s cancelled\n", args[1])
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, client.UserMessage(err))
		os.Exit(1)
	}
}

func list(ctx context.Context, b *console.Board) error {
	if err := b.Refresh(ctx); err != nil {
		return err
	}
	rows := b.Rows()
	if len(rows) == 0 {
		fmt.Println("no orders")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tCREATED\tTOTAL\tSTATUS\tACTIONS")
	for _, r := range rows {
		actions := make([]string, 0, len(r.View.Actions))
		for _, a := range r.View.Actions {
			actions = append(actions, string(a.Action))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Total, r.View.Badge.Label, strings.Join(actions, " "))
	}
	return w.Flush()
}

func update(ctx context.Context, c *client.Client, id, raw string) error {
	action, err := orderstatus.ParseAction(raw)
	if err != nil {
		return err
	}
	o, err := c.UpdateStatus(ctx, id, action)
	if err != nil {
		return err
	}
	fmt.Printf("order %s is now %s\n", o.OrderID, o.View.Badge.Label)
	return nil
}

func track(ctx context.Context, t *console.Tracker) error {
	if err := t.Refresh(ctx); err != nil {
		return err
	}
	rows := t.Rows()
	if len(rows) == 0 {
		fmt.Println("no orders yet")
		return nil
	}
	for _, r := range rows {
		labels := make([]string, 0, len(r.View.Progress.Steps))
		for i, s := range r.View.Progress.Steps {
			if i == r.View.Progress.Current {
				labels = append(labels, "["+s.Label+"]")
				continue
			}
			labels = append(labels, s.Label)
		}
		cancel := ""
		if r.View.Cancellable {
			cancel = "  (cancellable)"
		}
		fmt.Printf("%s  %-14s %s%s\n", r.ID, r.View.Badge.Label, strings.Join(labels, " > "), cancel)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
