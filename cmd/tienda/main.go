package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strconv"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/davemarchant/tienda-go/api"
	"github.com/davemarchant/tienda-go/auth"
	"github.com/davemarchant/tienda-go/cart"
	"github.com/davemarchant/tienda-go/catalog"
	"github.com/davemarchant/tienda-go/internal/config"
	"github.com/davemarchant/tienda-go/internal/utils"
	"github.com/davemarchant/tienda-go/notify"
	"github.com/davemarchant/tienda-go/orders"
	"github.com/davemarchant/tienda-go/pricing"
	"github.com/davemarchant/tienda-go/session"
	"github.com/davemarchant/tienda-go/store"
	"github.com/davemarchant/tienda-go/users"
	"github.com/davemarchant/tienda-go/wishlist"
)

const usage = `usage: tienda <command> [args]

  products [search]          list catalog products
  product <id>               show one product
  feature <id> on|off        mark a product as featured (admin)
  categories                 list categories
  login <email> <password>   sign in
  logout                     sign out
  cart show                  print the cart with totals
  cart add <id> [qty]        add a product to the cart
  cart rm <id>               remove a product from the cart
  cart set <id> <qty>        set an absolute quantity
  cart clear                 empty the cart
  checkout <state>           place an order shipped to a US state
  orders                     list your orders
  wishlist                   show your wishlist
  wishlist toggle <id>       add/remove a wishlist product
`

type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	session  *session.Session
	cart     *cart.Engine
	auth     *auth.Service
	products *catalog.Products
	cats     *catalog.Categories
	orders   *orders.Service
	users    *users.Service
	wishlist *wishlist.Service
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLvl)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	a, err := wire(cfg, st, logger)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		figure.NewFigure(cfg.AppName, "cybermedium", true).Print()
		fmt.Println()
		fmt.Print(usage)
		return nil
	}
	return a.dispatch(context.Background(), args)
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.Store.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		return store.NewRedisStore(client), nil
	}
	return store.NewFileStore(cfg.Store.DataDir)
}

func wire(cfg config.Config, st store.Store, logger zerolog.Logger) (*app, error) {
	notifier := notify.NewLogNotifier(logger)
	sess := session.New(st, logger)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	navigate := func(path string) {
		logger.Info().Str("path", path).Msg("redirecting")
	}

	authn := api.NewAuthenticator(sess, notifier,
		api.WithNavigator(navigate),
		api.WithAuthenticatorLogger(logger),
	)

	client := api.NewClient(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Transport: authn, Jar: jar, Timeout: cfg.API.Timeout}),
		api.WithNotifier(notifier),
		api.WithLogger(logger),
	)
	// The refresh call shares the cookie jar but bypasses the authenticator.
	bare := api.NewClient(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Jar: jar, Timeout: cfg.API.Timeout}),
		api.WithLogger(logger),
	)

	orderSvc := orders.NewService(client)
	engine := cart.NewEngine(st,
		cart.WithSession(sess),
		cart.WithRemote(orderSvc),
		cart.WithEngineLogger(logger),
	)
	wish := wishlist.NewService(client, sess, st, logger)
	authSvc := auth.NewService(client, bare, sess, engine, logger,
		auth.WithMirror(wish),
		auth.WithNavigator(navigate),
	)
	authn.SetRefresher(authSvc)

	return &app{
		cfg:      cfg,
		logger:   logger,
		session:  sess,
		cart:     engine,
		auth:     authSvc,
		products: catalog.NewProducts(client),
		cats:     catalog.NewCategories(client),
		orders:   orderSvc,
		users:    users.NewService(client),
		wishlist: wish,
	}, nil
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "products":
		params := catalog.ListParams{PaginationParams: api.PaginationParams{PageNumber: 1, PageSize: 20}}
		if len(args) > 1 {
			params.SearchTerm = args[1]
		}
		page, err := a.products.List(ctx, params)
		if err != nil {
			return err
		}
		for _, p := range page.Items {
			fmt.Printf("%6d  %-40s  $%8.2f  stock %d\n", p.ID, p.Name, p.Price, p.Stock)
		}
		fmt.Printf("page %d/%d (%d products)\n", page.PageNumber, page.TotalPages, page.TotalCount)
		return nil

	case "product":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		p, err := a.products.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n$%.2f  stock %d\n%s\n", p.Name, p.Price, p.Stock, p.Description)
		return nil

	case "feature":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		if len(args) < 3 || (args[2] != "on" && args[2] != "off") {
			return fmt.Errorf("usage: tienda feature <id> on|off")
		}
		p, err := a.products.Update(ctx, id, catalog.UpdateProductRequest{Featured: utils.Ptr(args[2] == "on")})
		if err != nil {
			return err
		}
		fmt.Printf("%s: featured=%v\n", p.Name, p.Featured)
		return nil

	case "categories":
		cats, err := a.cats.List(ctx)
		if err != nil {
			return err
		}
		for _, c := range cats {
			fmt.Printf("%6d  %s\n", c.ID, c.Name)
		}
		return nil

	case "login":
		if len(args) < 3 {
			return fmt.Errorf("usage: tienda login <email> <password>")
		}
		user, err := a.auth.SignIn(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("hola, %s\n", user.FullName())
		return a.cart.SyncRemote(ctx)

	case "logout":
		return a.auth.SignOut(ctx)

	case "cart":
		return a.cartCommand(ctx, args[1:])

	case "checkout":
		if len(args) < 2 {
			return fmt.Errorf("usage: tienda checkout <state>")
		}
		return a.checkout(ctx, args[1])

	case "orders":
		page, err := a.orders.List(ctx, api.PaginationParams{PageNumber: 1, PageSize: 10})
		if err != nil {
			return err
		}
		for _, o := range page.Items {
			fmt.Printf("#%d  %-10s  $%8.2f  %s\n", o.ID, o.Status, o.TotalPrice, o.CreatedAt.Format("2006-01-02"))
		}
		return nil

	case "wishlist":
		if len(args) > 1 && args[1] == "toggle" {
			id, err := argID(args, 2)
			if err != nil {
				return err
			}
			msg, err := a.wishlist.Toggle(ctx, id)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		}
		products, err := a.wishlist.Fetch(ctx)
		if err != nil {
			return err
		}
		for _, p := range products {
			fmt.Printf("%6d  %-40s  $%8.2f\n", p.ID, p.Name, p.Price)
		}
		return nil

	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) cartCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}
	switch args[0] {
	case "show":
		snap := a.cart.Snapshot()
		for _, line := range snap.Items {
			flag := ""
			if line.DisabledInStock {
				flag = "  (sin stock suficiente)"
			}
			fmt.Printf("%6d  %-40s  x%-3d  $%8.2f%s\n",
				line.Product.ID, line.Product.Name, line.Quantity,
				line.Product.Price*float64(line.Quantity), flag)
		}
		fmt.Printf("%d items, subtotal $%.2f\n", snap.TotalItems, snap.TotalPrice)
		return nil

	case "add":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		qty := 1
		if len(args) > 2 {
			if qty, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("invalid quantity %q", args[2])
			}
		}
		product, err := a.products.Get(ctx, id)
		if err != nil {
			return err
		}
		// Stock ceiling is enforced here at the call site, not by the engine.
		if !product.InStock(qty) {
			return fmt.Errorf("solo quedan %d unidades de %s", product.Stock, product.Name)
		}
		a.cart.AddItem(*product, qty)
		// A one-shot process exits before background syncs land, so the
		// ledger is pushed synchronously here.
		return a.cart.SyncRemote(ctx)

	case "rm":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		a.cart.RemoveItem(id)
		return a.cart.SyncRemote(ctx)

	case "set":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return fmt.Errorf("usage: tienda cart set <id> <qty>")
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		a.cart.UpdateQuantity(id, qty)
		return a.cart.SyncRemote(ctx)

	case "clear":
		a.cart.Clear()
		return a.cart.SyncRemote(ctx)

	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

func (a *app) checkout(ctx context.Context, state string) error {
	user := a.session.User()
	if user == nil {
		return fmt.Errorf("inicia sesión antes de pagar")
	}
	if user.ShippingAddress == nil || user.BillingAddress == nil {
		return fmt.Errorf("completa tus direcciones en el perfil antes de pagar")
	}

	snap := a.cart.Snapshot()
	if len(snap.Items) == 0 {
		return fmt.Errorf("el carrito está vacío")
	}

	quote := pricing.NewQuote(snap.TotalPrice, state)
	items := make([]orders.CreateOrderItem, 0, len(snap.Items))
	for _, line := range snap.Items {
		items = append(items, orders.CreateOrderItem{ProductID: line.Product.ID, Quantity: line.Quantity})
	}

	order, err := a.orders.Create(ctx, orders.CreateOrderRequest{
		Items:           items,
		BillingAddress:  *user.BillingAddress,
		ShippingAddress: *user.ShippingAddress,
		PaymentInfo:     orders.PaymentInfo{Method: orders.PaymentCreditCard},
		Subtotal:        quote.Subtotal,
		Tax:             quote.Tax,
		ShippingCost:    quote.ShippingCost,
		TotalPrice:      quote.Total,
	})
	if err != nil {
		return err
	}

	a.cart.Clear()
	fmt.Printf("pedido #%d creado: subtotal $%.2f + impuestos $%.2f + envío $%.2f = $%.2f\n",
		order.ID, quote.Subtotal, quote.Tax, quote.ShippingCost, quote.Total)
	return a.cart.SyncRemote(ctx)
}

func argID(args []string, pos int) (int64, error) {
	if len(args) <= pos {
		return 0, fmt.Errorf("missing product id")
	}
	id, err := strconv.ParseInt(args[pos], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[pos])
	}
	return id, nil
}
