// Command mmdbval looks up IP addresses in a MaxMind DB file and prints
// the decoded records.
//
// Usage:
//
//	mmdbval --db GeoLite2-City.mmdb 81.2.69.142 2001:db8::1
//	mmdbval --db city --format json --cache /var/cache/mmdbval.db 81.2.69.142
//	mmdbval --db city --metadata
//
// --db accepts either a file path or an alias from the config file.
// Exit codes: 0 on success, 1 on failure, 2 when at least one address had
// no record.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/mmdbtools/mmdbval"
	"github.com/mmdbtools/mmdbval/lookupcache"
	"github.com/mmdbtools/mmdbval/mmdbfile"
)

func main() {
	code, err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mmdbval: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(args []string, out, errOut io.Writer) (int, error) {
	fs := flag.NewFlagSet("mmdbval", flag.ContinueOnError)
	fs.SetOutput(errOut)
	dbFlag := fs.StringP("db", "d", "", "database path or config alias")
	format := fs.StringP("format", "f", "pretty", "output format: pretty, json or msgpack")
	showMeta := fs.Bool("metadata", false, "print database metadata instead of looking up addresses")
	cachePath := fs.String("cache", "", "bbolt cache file (overrides the config)")
	configPath := fs.String("config", "", "config file (default: mmdbval/config.yaml under the user config dir)")
	verbose := fs.BoolP("verbose", "v", false, "log cache activity to stderr")
	if err := fs.Parse(args); err != nil {
		return 1, err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return 1, err
	}

	dbPath, err := cfg.resolveDatabase(*dbFlag)
	if err != nil {
		return 1, err
	}
	r, err := mmdbfile.Open(dbPath)
	if err != nil {
		return 1, err
	}
	defer r.Close()

	if *showMeta {
		return 0, render(out, *format, r.Metadata().Raw)
	}

	addrs := fs.Args()
	if len(addrs) == 0 {
		return 1, errors.New("no addresses given")
	}

	var section *lookupcache.Section
	if path := firstNonEmpty(*cachePath, cfg.Cache); path != "" {
		copt := lookupcache.Options{}
		if *verbose {
			copt.Logf = func(format string, args ...any) {
				fmt.Fprintf(errOut, format+"\n", args...)
			}
		}
		c, err := lookupcache.Open(path, copt)
		if err != nil {
			return 1, err
		}
		defer c.Close()
		section, err = c.ForDatabase(r.Metadata())
		if err != nil {
			return 1, err
		}
	}

	code := 0
	for _, arg := range addrs {
		addr, err := netip.ParseAddr(arg)
		if err != nil {
			return 1, fmt.Errorf("%q is not an IP address", arg)
		}
		v, network, err := lookupOne(r, section, addr)
		if err != nil {
			return 1, err
		}
		if v == nil {
			fmt.Fprintf(errOut, "mmdbval: %s: no record (searched %v)\n", arg, network)
			code = 2
			continue
		}
		if len(addrs) > 1 && *format != "msgpack" {
			fmt.Fprintf(out, "# %s (%v)\n", arg, network)
		}
		if err := render(out, *format, v); err != nil {
			return 1, err
		}
	}
	return code, nil
}

// lookupOne resolves one address, going through the cache when one is
// configured. Returns a nil value when the database has no record.
func lookupOne(r *mmdbfile.Reader, section *lookupcache.Section, addr netip.Addr) (mmdbval.Value, netip.Prefix, error) {
	res, err := r.Lookup(addr)
	if err != nil {
		return nil, netip.Prefix{}, err
	}
	if !res.Found() {
		return nil, res.Network, nil
	}

	if section != nil {
		if v, ok, err := section.Get(res.Network); err != nil {
			return nil, res.Network, err
		} else if ok {
			return v, res.Network, nil
		}
	}

	m, err := res.Decode()
	if err != nil {
		return nil, res.Network, err
	}
	if section != nil {
		if err := section.Put(res.Network, m); err != nil {
			return nil, res.Network, err
		}
	}
	return m, res.Network, nil
}

func render(out io.Writer, format string, v mmdbval.Value) error {
	switch format {
	case "json":
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		raw = append(raw, '\n')
		_, err = out.Write(raw)
		return err
	case "pretty":
		_, err := io.WriteString(out, mmdbval.Dump(v))
		return err
	case "msgpack":
		raw, err := mmdbval.MarshalMsgpack(v)
		if err != nil {
			return err
		}
		_, err = out.Write(raw)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
