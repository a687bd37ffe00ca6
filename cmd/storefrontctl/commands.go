package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	storefront "github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/components/storefront/commands"
	"github.com/goliatone/go-storefront/components/storefront/queries"
	"github.com/goliatone/go-storefront/pkg/api"
)

type listCmd struct {
	Resource  string            `arg:"" help:"Resource name (e.g. productos)."`
	Namespace string            `default:"admin" enum:"admin,api" help:"Backend namespace."`
	Page      int               `default:"1" help:"Page to show."`
	PageSize  int               `name:"page-size" help:"Rows per page (defaults to list.page_size)."`
	Filter    map[string]string `help:"Query filters as key=value."`
}

func (cmd *listCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, def, err := a.list(cmd.Namespace, cmd.Resource, storefront.Params(cmd.Filter))
	if err != nil {
		return err
	}
	defer list.Close()
	snap, err := queries.NewListPageQuery(list).Query(ctx, queries.ListPageInput{
		Page:     cmd.Page,
		PageSize: cmd.PageSize,
		Reload:   true,
	})
	if err != nil {
		return err
	}
	renderSnapshot(a.out, snap, def.IDField)
	if snap.Error != "" {
		return errors.New(snap.Error)
	}
	return nil
}

// list builds and loads a List for ns/name.
func (a *app) list(ns, name string, params storefront.Params) (*storefront.List, storefront.ResourceDefinition, error) {
	namespace, err := a.namespace(ns)
	if err != nil {
		return nil, storefront.ResourceDefinition{}, err
	}
	resource, err := namespace.Resource(name)
	if err != nil {
		return nil, storefront.ResourceDefinition{}, err
	}
	def := resource.Definition()
	list := storefront.NewList(storefront.ListOptions{
		Resource:  def.Key(),
		IDField:   def.IDField,
		PageSize:  a.cfg.List.PageSize,
		Params:    params,
		Client:    resource,
		Notifier:  a.notifier(),
		Telemetry: a.telemetry(),
		Logger:    a.logger,
	})
	return list, def, nil
}

type toggleCmd struct {
	Resource  string `arg:"" help:"Resource name."`
	ID        string `arg:"" help:"Record id."`
	Flag      string `arg:"" optional:"" help:"Flag to flip (defaults to the resource's first flag)."`
	Namespace string `default:"admin" enum:"admin,api" help:"Backend namespace."`
}

func (cmd *toggleCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, def, err := a.list(cmd.Namespace, cmd.Resource, nil)
	if err != nil {
		return err
	}
	defer list.Close()
	flag := cmd.Flag
	if flag == "" {
		if len(def.Flags) == 0 {
			return fmt.Errorf("storefrontctl: %s has no toggleable flags", def.Key())
		}
		flag = def.Flags[0]
	}
	if !def.HasFlag(flag) {
		return fmt.Errorf("storefrontctl: %s has no flag %q (have %s)", def.Key(), flag, strings.Join(def.Flags, ", "))
	}
	if err := list.Load(ctx); err != nil {
		return err
	}
	return commands.NewToggleFlagCommand(list, a.telemetry()).Execute(ctx, commands.ToggleFlagInput{
		Resource: def.Key(),
		ID:       cmd.ID,
		Flag:     flag,
	})
}

type deleteCmd struct {
	Resource  string `arg:"" help:"Resource name."`
	ID        string `arg:"" help:"Record id."`
	Namespace string `default:"admin" enum:"admin,api" help:"Backend namespace."`
	Yes       bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (cmd *deleteCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, def, err := a.list(cmd.Namespace, cmd.Resource, nil)
	if err != nil {
		return err
	}
	defer list.Close()
	if err := list.Load(ctx); err != nil {
		return err
	}
	confirmed := cmd.Yes
	if !confirmed {
		confirmed = confirm(fmt.Sprintf("Delete %s %s?", def.Title, cmd.ID))
	}
	err = commands.NewRemoveRecordCommand(list, a.telemetry()).Execute(ctx, commands.RemoveRecordInput{
		Resource:  def.Key(),
		ID:        cmd.ID,
		Confirmed: confirmed,
	})
	if err != nil {
		return err
	}
	if !confirmed {
		list.CancelRemove()
		fmt.Fprintln(a.out, "cancelled")
	}
	return nil
}

func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

type saveCmd struct {
	Resource  string `arg:"" help:"Resource name."`
	ID        string `help:"Record id to update; omit to create."`
	Data      string `required:"" help:"JSON object with the fields to save."`
	Namespace string `default:"admin" enum:"admin,api" help:"Backend namespace."`
}

func (cmd *saveCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	namespace, err := a.namespace(cmd.Namespace)
	if err != nil {
		return err
	}
	resource, err := namespace.Resource(cmd.Resource)
	if err != nil {
		return err
	}
	payload, err := storefront.ParseJSONField("data", cmd.Data)
	if err != nil {
		return err
	}
	def := resource.Definition()
	form := storefront.NewRecordForm(storefront.RecordFormOptions{
		Client:     resource,
		Definition: def,
		Validator:  storefront.NewJSONSchemaValidator(),
		Notifier:   a.notifier(),
		Logger:     a.logger,
	})
	if cmd.ID != "" {
		current, err := form.Load(ctx, cmd.ID)
		if err != nil {
			return err
		}
		merged := current.Clone()
		for key, value := range payload {
			merged[key] = value
		}
		payload = merged
	}
	var saved storefront.Record
	if err := commands.NewSaveRecordCommand(form, a.telemetry()).Execute(ctx, commands.SaveRecordInput{
		Resource: def.Key(),
		Payload:  payload,
		Saved:    &saved,
	}); err != nil {
		return err
	}
	renderRecords(a.out, []storefront.Record{saved}, def.IDField)
	return nil
}

type exportCmd struct {
	Resource  string            `arg:"" help:"Exportable resource name (e.g. transacciones)."`
	Start     string            `help:"Start date (YYYY-MM-DD)."`
	End       string            `help:"End date (YYYY-MM-DD)."`
	Filter    map[string]string `help:"Extra filters as key=value."`
	Dir       string            `default:"." type:"path" help:"Directory to write the workbook into."`
	Namespace string            `default:"admin" enum:"admin,api" help:"Backend namespace."`
}

func (cmd *exportCmd) Run(ctx context.Context, g *globals) error {
	for _, date := range []string{cmd.Start, cmd.End} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return fmt.Errorf("storefrontctl: invalid date %q: want YYYY-MM-DD", date)
		}
	}
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	namespace, err := a.namespace(cmd.Namespace)
	if err != nil {
		return err
	}
	resource, err := namespace.Resource(cmd.Resource)
	if err != nil {
		return err
	}
	def := resource.Definition()
	if !def.Exportable {
		return fmt.Errorf("storefrontctl: %s does not support exports", def.Key())
	}
	action := storefront.NewExportAction(storefront.ExportOptions{
		Resource:  def.Name,
		Exporter:  resource,
		Telemetry: a.telemetry(),
		Logger:    a.logger,
	})
	var out commands.ExportOutput
	if err := commands.NewExportCommand(action, a.telemetry()).Execute(ctx, commands.ExportInput{
		Resource:  def.Key(),
		StartDate: cmd.Start,
		EndDate:   cmd.End,
		Filters:   storefront.Params(cmd.Filter),
		Dir:       cmd.Dir,
		Result:    &out,
	}); err != nil {
		return errors.New(storefront.MessageFor(err, "export failed"))
	}
	renderExport(a.out, out.Path, out.ExportResult)
	return nil
}

type bannerCmd struct {
	Watch   bool `short:"w" help:"Keep the countdown running until the banner expires."`
	Dismiss bool `help:"Dismiss the current banner."`
	Width   int  `default:"60" help:"Display width used for scrolling long text."`
}

func (cmd *bannerCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	offset := 0
	lifecycle := storefront.NewBannerLifecycle(storefront.BannerOptions{
		Source:     a.services.Notifications,
		Dismissals: storefront.NewDismissalSet(a.storage),
		Telemetry:  a.telemetry(),
		Logger:     a.logger,
		OnTick: func(view storefront.BannerView) {
			offset++
			if view.State != storefront.BannerVisible || view.Banner == nil {
				fmt.Fprintf(a.out, "\nbanner hidden (%s)\n", view.Reason)
				return
			}
			fmt.Fprintf(a.out, "\r%s  %s", storefront.MarqueeFrame(view.Banner.Title, cmd.Width, offset), view.Countdown)
		},
	})
	defer lifecycle.Close()

	view, err := queries.NewBannerQuery(lifecycle).Query(ctx, struct{}{})
	if err != nil {
		return errors.New(storefront.MessageFor(err, "could not load banner"))
	}
	if cmd.Dismiss {
		if view.State != storefront.BannerVisible {
			renderBanner(a.out, view, cmd.Width, 0)
			return nil
		}
		if err := commands.NewDismissBannerCommand(lifecycle, a.telemetry()).Execute(ctx, commands.DismissBannerInput{}); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "✓ Dismissed %q\n", view.Banner.Title)
		return nil
	}
	renderBanner(a.out, view, cmd.Width, 0)
	if !cmd.Watch || !view.HasDeadline || view.State != storefront.BannerVisible {
		return nil
	}

	watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	lifecycle.Start(watchCtx)
	select {
	case <-lifecycle.Done():
	case <-watchCtx.Done():
	}
	fmt.Fprintln(a.out)
	return nil
}

type categoriesCmd struct {
	Param    map[string]string `help:"Query parameters as key=value."`
	Required bool              `help:"Render the selector as required."`
	Value    string            `help:"Currently selected value."`
}

func (cmd *categoriesCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	source, err := a.services.App.Resource("categorias")
	if err != nil {
		return err
	}
	selector := storefront.NewSelector(storefront.SelectorOptions{
		Resource: source.Definition().Key(),
		Source:   source,
		Params:   storefront.Params(cmd.Param),
		Required: cmd.Required,
		Logger:   a.logger,
	})
	selector.SetValue(cmd.Value)
	options, err := queries.NewSelectorOptionsQuery(selector).Query(ctx, queries.SelectorOptionsInput{
		Params: storefront.Params(cmd.Param),
	})
	rows := make([][]string, 0, len(options))
	for _, opt := range options {
		mark := ""
		if opt.Disabled {
			mark = "disabled"
		}
		if opt.Value != "" && opt.Value == selector.Value() {
			mark = "selected"
		}
		rows = append(rows, []string{opt.Value, opt.Label, mark})
	}
	renderTable(a.out, []string{"VALUE", "LABEL", ""}, rows)
	if err != nil {
		fmt.Fprintln(a.errOut, selector.ErrorHint())
		return err
	}
	return nil
}

type cartCmd struct {
	Action   string `arg:"" default:"show" enum:"show,add,update,remove,clear" help:"show, add, update, remove or clear."`
	Product  string `help:"Product id for add, update and remove."`
	Quantity int    `short:"q" default:"1" help:"Quantity for add and update."`
}

func (cmd *cartCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.session.RequireAuth(); err != nil {
		return err
	}

	cart := a.services.Cart
	if cmd.Action != "show" && cmd.Action != "clear" && cmd.Product == "" {
		return fmt.Errorf("storefrontctl: cart %s requires --product", cmd.Action)
	}
	switch cmd.Action {
	case "add":
		_, err = cart.Add(ctx, cmd.Product, cmd.Quantity)
	case "update":
		err = cart.UpdateQuantity(ctx, cmd.Product, cmd.Quantity)
	case "remove":
		err = cart.RemoveItem(ctx, cmd.Product)
	case "clear":
		err = cart.Clear(ctx)
	}
	if err != nil {
		return err
	}

	items, err := cart.Items(ctx)
	if err != nil {
		return err
	}
	broadcast := storefront.NewCartBroadcast()
	events, cancel := broadcast.Subscribe()
	defer cancel()
	broadcast.Publish(ctx, storefront.CartEvent{Count: storefront.CartCount(items)})

	renderRecords(a.out, items, "carrito_id")
	event := <-events
	fmt.Fprintf(a.out, "\n%s in cart\n", humanize.Comma(int64(event.Count)))
	return nil
}

type checkoutCmd struct {
	Address  string `required:"" help:"Shipping address."`
	Notes    string `help:"Order notes."`
	Delivery string `help:"Delivery method."`
}

func (cmd *checkoutCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.session.RequireAuth(); err != nil {
		return err
	}
	order, err := a.services.Orders.Checkout(ctx, api.CheckoutRequest{
		DeliveryMethod:  cmd.Delivery,
		ShippingAddress: cmd.Address,
		Notes:           cmd.Notes,
	})
	if err != nil {
		return err
	}
	renderRecords(a.out, []storefront.Record{order}, "pedido_id")
	return nil
}

type payCmd struct {
	Order       string `arg:"" help:"Order id."`
	Amount      string `required:"" help:"Amount paid."`
	Method      string `required:"" help:"Payment method code."`
	Transaction string `help:"Gateway transaction code."`
}

func (cmd *payCmd) Run(ctx context.Context, g *globals) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(cmd.Amount))
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("storefrontctl: invalid amount %q", cmd.Amount)
	}
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.session.RequireAuth(); err != nil {
		return err
	}
	tx, err := a.services.Transactions.Pay(ctx, api.PaymentRequest{
		OrderID:       cmd.Order,
		Method:        cmd.Method,
		TransactionID: cmd.Transaction,
		Amount:        amount.StringFixed(2),
	})
	if err != nil {
		return err
	}
	renderRecords(a.out, []storefront.Record{tx}, "transaccion_id")
	return nil
}

type followupCmd struct {
	Report    string   `arg:"" help:"Report id."`
	Message   string   `required:"" help:"Follow-up text."`
	Attach    []string `type:"existingfile" help:"Images to attach."`
	Namespace string   `default:"api" enum:"admin,api" help:"Backend namespace."`
}

func (cmd *followupCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if _, err := a.namespace(cmd.Namespace); err != nil {
		return err
	}

	files := make([]api.FormFile, 0, len(cmd.Attach))
	for _, path := range cmd.Attach {
		f, err := os.Open(path) //nolint:gosec
		if err != nil {
			return fmt.Errorf("storefrontctl: open attachment: %w", err)
		}
		defer f.Close()
		files = append(files, api.FormFile{Field: "imagen", FileName: filepath.Base(path), Content: f})
	}
	rec, err := a.services.Reports.AddFollowUp(ctx, storefront.Namespace(cmd.Namespace), cmd.Report, cmd.Message, files...)
	if err != nil {
		return err
	}
	renderRecords(a.out, []storefront.Record{rec}, "id")
	return nil
}

type loginCmd struct {
	Email    string `required:"" help:"Account email."`
	Password string `required:"" env:"STOREFRONT_PASSWORD" help:"Account password."`
}

func (cmd *loginCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	user, err := a.session.Login(ctx, cmd.Email, cmd.Password)
	if err != nil {
		return errors.New(storefront.MessageFor(err, "login failed"))
	}
	role := "customer"
	if storefront.IsStaff(user) {
		role = "staff"
	}
	fmt.Fprintf(a.out, "✓ Signed in as %s (%s)\n", user.String("email"), role)
	return nil
}

type logoutCmd struct{}

func (cmd *logoutCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "✓ Signed out")
	return nil
}

type whoamiCmd struct{}

func (cmd *whoamiCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.session.Hydrate(ctx); err != nil {
		return errors.New(storefront.MessageFor(err, "session expired"))
	}
	if !a.session.Authenticated() {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	user := a.session.User()
	fmt.Fprintf(a.out, "%s (staff: %t)\n", user.String("email"), a.session.Staff())
	if exp, ok := storefront.TokenExpiry(a.session.Token()); ok {
		fmt.Fprintf(a.out, "token expires %s\n", humanize.Time(exp))
	}
	return nil
}

type themeCmd struct {
	Action string `arg:"" default:"show" enum:"show,toggle,light,dark" help:"show, toggle, light or dark."`
}

func (cmd *themeCmd) Run(ctx context.Context, g *globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	pref, err := storefront.NewThemePreference(ctx, a.storage, systemTheme)
	if err != nil {
		return err
	}
	switch cmd.Action {
	case "toggle":
		if _, err := pref.Toggle(ctx); err != nil {
			return err
		}
	case "light", "dark":
		if err := pref.Set(ctx, storefront.Theme(cmd.Action)); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.out, pref.Theme())
	return nil
}

// systemTheme reads the terminal preference from COLORFGBG ("fg;bg"), where
// a dark background has a low color index.
func systemTheme() storefront.Theme {
	parts := strings.Split(os.Getenv("COLORFGBG"), ";")
	switch parts[len(parts)-1] {
	case "0", "1", "2", "3", "4", "5", "6", "8":
		return storefront.ThemeDark
	}
	return storefront.ThemeLight
}
