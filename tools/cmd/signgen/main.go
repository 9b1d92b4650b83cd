// momo-gateway/tools/cmd/signgen/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/example/momo-gateway/internal/config"
	"github.com/example/momo-gateway/internal/momo"
)

// signgen prints the canonical string, signature and body the gateway client would send.
// Credentials come from the same env/.env as the services.
func main() {
	op := flag.String("op", "create", "create | query")
	amount := flag.Int64("amount", 4500, "amount for create")
	orderID := flag.String("order", "", "orderId (default: partnerCode+now)")
	requestID := flag.String("request", "", "requestId for query (default: random uuid)")
	sig := flag.String("sig", "", "signature to check against the computed one")
	flag.Parse()

	if err := run(os.Stdout, config.Load(), *op, *amount, *orderID, *requestID, *sig); err != nil {
		log.Fatal(err)
	}
}

func run(w io.Writer, cfg *config.Config, op string, amount int64, orderID, requestID, sig string) error {
	var opts []momo.Option
	if requestID != "" {
		opts = append(opts, momo.WithRequestIDs(func() string { return requestID }))
	}
	c := momo.NewClient(cfg, opts...)
	if orderID == "" {
		orderID = c.NewOrderID()
	}

	var canonical string
	var body any
	switch op {
	case "create":
		req := c.BuildCreateRequest(orderID, amount)
		canonical, body = momo.CreateCanonical(cfg.AccessKey, req), req
	case "query":
		req := c.BuildQueryRequest(orderID)
		canonical, body = momo.QueryCanonical(cfg.AccessKey, req), req
	default:
		return fmt.Errorf("unknown -op %q (want create or query)", op)
	}

	b, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "canonical: %s\n", canonical)
	fmt.Fprintf(w, "signature: %s\n", momo.Sign(cfg.SecretKey, canonical))
	fmt.Fprintf(w, "body:\n%s\n", b)
	if sig != "" {
		fmt.Fprintf(w, "match: %t\n", momo.Verify(cfg.SecretKey, canonical, sig))
	}
	return nil
}
