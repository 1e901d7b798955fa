package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/orderitems"
	"github.com/vladislavdragonenkov/storefront/internal/service/orderview"
)

type options struct {
	input   string
	asJSON  bool
	orderID string
}

type summaryJSON struct {
	OrderID       string                 `json:"orderId,omitempty"`
	Items         []domain.FormattedItem `json:"items"`
	LineCount     int                    `json:"lineCount"`
	TotalQuantity int                    `json:"totalQuantity"`
	TotalPrice    json.Number            `json:"totalPrice"`
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.WithError(err).Error("format-items failed")
		os.Exit(1)
	}
}

func parseOptions(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("format-items", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.input, "in", "-", "path to a JSON array of raw order lines, - for stdin")
	fs.BoolVar(&opts.asJSON, "json", false, "print grouped items as JSON")
	fs.StringVar(&opts.orderID, "order-id", "", "keep only lines of this order")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 && opts.input == "-" {
		opts.input = fs.Arg(0)
	}
	opts.orderID = strings.TrimSpace(opts.orderID)
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	data, err := readInput(opts.input, stdin)
	if err != nil {
		return err
	}
	lines, err := domain.ParseRawOrderLines(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", opts.input, err)
	}
	if opts.orderID != "" {
		lines = filterByOrder(lines, opts.orderID)
	}

	items, stats := orderitems.FormatOrderItemsWithStats(lines)
	log.WithFields(log.Fields{
		"lines":   stats.Lines,
		"groups":  stats.Groups,
		"json":    stats.JSONDetails,
		"literal": stats.LiteralDetails,
		"missing": stats.MissingDetails,
	}).Debug("order lines grouped")

	summary := orderview.BuildSummary(opts.orderID, items, len(lines), time.Now().UTC())
	if opts.asJSON {
		return writeJSON(stdout, summary)
	}
	return writeTable(stdout, summary)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func filterByOrder(lines []domain.RawOrderLine, orderID string) []domain.RawOrderLine {
	filtered := lines[:0:0]
	for _, line := range lines {
		if line.OrderID == orderID {
			filtered = append(filtered, line)
		}
	}
	return filtered
}

func writeJSON(w io.Writer, summary domain.OrderSummary) error {
	items := summary.Items
	if items == nil {
		items = []domain.FormattedItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(summaryJSON{
		OrderID:       summary.OrderID,
		Items:         items,
		LineCount:     summary.LineCount,
		TotalQuantity: summary.TotalQuantity,
		TotalPrice:    json.Number(summary.TotalPrice.String()),
	})
}

// writeTable печатает по строке на группу: название | цвет | размеры | кол-во | цена | сумма.
func writeTable(w io.Writer, summary domain.OrderSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\t| COLOR\t| SIZES\t| QTY\t| UNIT\t| TOTAL")
	for _, item := range summary.Items {
		color := item.Color
		if color == "" {
			color = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t| %s\t| %s\t| %d\t| %s\t| %s\n",
			item.Name,
			color,
			orderitems.FormatSizesDisplay(item.Sizes),
			item.TotalQuantity,
			item.PricePerItem.String(),
			item.TotalPrice.String(),
		)
	}
	_, _ = fmt.Fprintf(tw, "TOTAL\t|\t|\t| %d\t|\t| %s\n", summary.TotalQuantity, summary.TotalPrice.String())
	return tw.Flush()
}
