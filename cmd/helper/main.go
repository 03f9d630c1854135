package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	servicenow "github.com/uwbench/servicenow-uw-golang"
	"github.com/uwbench/servicenow-uw-golang/internal/config"
)

func main() {
	app := &cli.App{
		Name:    "workbench-helper",
		Usage:   "manual servicenow oauth and table helpers",
		Version: versioninfo.Short(),
		Commands: []*cli.Command{
			runAuthUrl,
			runExchange,
			runTestConnection,
		},
	}

	app.RunAndExitOnError()
}

func newClient(tokens servicenow.TokenStore, states servicenow.StateStore) (*servicenow.Client, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return servicenow.NewClient(servicenow.ClientArgs{
		InstanceUrl:  cfg.InstanceUrl,
		ClientId:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		RedirectUri:  cfg.RedirectUri,
		AppPrefix:    cfg.AppPrefix,
		RelayBase:    cfg.RelayBase,
		Tokens:       tokens,
		States:       states,
	})
}

var runAuthUrl = &cli.Command{
	Name:  "auth-url",
	Usage: "print an authorization url for a manual flow; the state nonce is in the url",
	Action: func(cmd *cli.Context) error {
		client, err := newClient(nil, nil)
		if err != nil {
			return err
		}

		fmt.Println(client.AuthorizeURL())
		return nil
	},
}

var runExchange = &cli.Command{
	Name:  "exchange",
	Usage: "exchange an authorization code by hand",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "code",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "state",
			Required: true,
		},
	},
	Action: func(cmd *cli.Context) error {
		// replay the state into a fresh store so the consume check passes
		states := servicenow.NewMemoryStateStore()
		states.Save(cmd.String("state"))

		client, err := newClient(nil, states)
		if err != nil {
			return err
		}

		token, err := client.ExchangeCode(cmd.Context, cmd.String("code"), cmd.String("state"))
		if err != nil {
			return err
		}

		fmt.Println(token)
		return nil
	},
}

var runTestConnection = &cli.Command{
	Name:  "test-connection",
	Usage: "probe the submission table with an existing token",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "token",
			Required: true,
		},
	},
	Action: func(cmd *cli.Context) error {
		tokens := servicenow.NewMemoryTokenStore()
		tokens.Store(cmd.String("token"), 30*time.Minute)

		client, err := newClient(tokens, nil)
		if err != nil {
			return err
		}

		sample, err := client.TestConnection(cmd.Context)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sample)
	},
}
