package main

import (
	"context"

	"github.com/alecthomas/kong"
)

type globals struct {
	Config  string `short:"c" type:"path" default:"storefront.yaml" help:"Path to the YAML config file (missing files are ignored)."`
	BaseURL string `name:"base-url" help:"Override api.base_url."`
	Debug   bool   `help:"Log at debug level."`
}

type cli struct {
	Globals globals `embed:""`

	List       listCmd       `cmd:"" help:"Show one page of a resource list."`
	Toggle     toggleCmd     `cmd:"" help:"Flip a boolean flag on a record."`
	Delete     deleteCmd     `cmd:"" help:"Delete a record after confirmation."`
	Save       saveCmd       `cmd:"" help:"Create or update a record from a JSON payload."`
	Export     exportCmd     `cmd:"" help:"Download a spreadsheet export."`
	Banner     bannerCmd     `cmd:"" help:"Show, watch or dismiss the promotional banner."`
	Categories categoriesCmd `cmd:"" help:"List category options as a selector would."`
	Cart       cartCmd       `cmd:"" help:"Show or change the shopping cart."`
	Checkout   checkoutCmd   `cmd:"" help:"Turn the cart into an order."`
	Pay        payCmd        `cmd:"" help:"Register a payment for an order."`
	Followup   followupCmd   `cmd:"" help:"Add a follow-up to a fault report."`
	Login      loginCmd      `cmd:"" help:"Sign in and store the session."`
	Logout     logoutCmd     `cmd:"" help:"Clear the stored session."`
	Whoami     whoamiCmd     `cmd:"" help:"Show the signed-in user."`
	Theme      themeCmd      `cmd:"" help:"Show or change the color theme."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("storefrontctl"),
		kong.Description("Command-line client for the storefront and its admin panel."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background(), &c.Globals)
	ctx.FatalIfErrorf(err)
}
