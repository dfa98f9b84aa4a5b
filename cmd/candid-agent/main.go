// candid-agent sends signed calls and queries to a canister and decodes
// Candid messages.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/storacha/go-candid/client"
	"github.com/storacha/go-candid/core/candid"
	"github.com/storacha/go-candid/core/request"
	"github.com/storacha/go-candid/principal/ed25519/signer"
)

const usage = `usage: candid-agent <command> [flags]

commands:
  keygen       create a new identity
  whoami       print the principal of the identity
  call         send an update call
  query        send a query
  decode       decode a hex Candid message
  request-id   print the id of a request without sending it
`

// emptyArg is a message with no arguments.
const emptyArg = "4449444c0000"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stdout, usage)
		return nil
	}
	name := args[0]

	var common commonFlags
	var method, argHex, typ, nonceHex string
	fs := pflag.NewFlagSet("candid-agent "+name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	common.AddFlags(fs)
	switch name {
	case "call", "query", "request-id":
		fs.StringVarP(&method, "method", "m", "", "method name")
		fs.StringVar(&argHex, "arg-hex", emptyArg, "hex encoded Candid argument")
		if name == "request-id" {
			fs.StringVar(&typ, "type", string(request.Call), "request type (call or query)")
			fs.StringVar(&nonceHex, "nonce-hex", "", "hex encoded nonce (default none)")
		}
	case "keygen", "whoami", "decode":
	default:
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := resolveConfig(fs, &common)
	if err != nil {
		return err
	}
	logger := InitLogger("candid-agent", stderr, cfg.LogLevel)

	switch name {
	case "keygen":
		s, err := signer.Generate()
		if err != nil {
			return err
		}
		id, err := signer.Format(s)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "identity  %s\nprincipal %s\n", id, s.Principal())
		return nil

	case "whoami":
		s, err := cfg.signer()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, s.Principal())
		return nil

	case "decode":
		if fs.NArg() != 1 {
			return fmt.Errorf("decode takes one hex message")
		}
		return printMessage(stdout, fs.Arg(0))

	case "request-id":
		s, err := cfg.signer()
		if err != nil {
			return err
		}
		canister, err := cfg.canister()
		if err != nil {
			return err
		}
		arg, err := decodeHex("--arg-hex", argHex)
		if err != nil {
			return err
		}
		nonce := request.WithoutNonce()
		if nonceHex != "" {
			b, err := decodeHex("--nonce-hex", nonceHex)
			if err != nil {
				return err
			}
			nonce = request.WithNonce(b)
		}
		req, err := request.New(request.RequestType(typ), canister, method, arg, s.Principal(), nonce)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, req.ID())
		return nil
	}

	// call or query
	if method == "" {
		return fmt.Errorf("--method is required")
	}
	s, err := cfg.signer()
	if err != nil {
		return err
	}
	canister, err := cfg.canister()
	if err != nil {
		return err
	}
	arg, err := decodeHex("--arg-hex", argHex)
	if err != nil {
		return err
	}
	conn, err := client.NewHTTPConnection(cfg.Host, canister, s, client.WithAPIVersion(cfg.APIVersion), client.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var reply []byte
	if name == "query" {
		reply, err = client.Read(ctx, conn, method, arg)
	} else {
		reply, err = client.Submit(ctx, conn, method, arg)
	}
	if err != nil {
		return err
	}
	if len(reply) == 0 {
		logger.Info().Str("method", method).Msg("accepted with no reply")
		return nil
	}
	return printMessage(stdout, hex.EncodeToString(reply))
}

func decodeHex(flag, s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", flag, err)
	}
	return b, nil
}

// printMessage prints a message in hex and its self-describing decoding.
func printMessage(w io.Writer, msgHex string) error {
	data, err := decodeHex("message", msgHex)
	if err != nil {
		return err
	}
	msg, err := candid.Decode(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, hex.EncodeToString(data))
	fmt.Fprintln(w, candid.FormatArgs(msg.Values))
	return nil
}
