// Command storefront is a terminal front end for the marketplace client: it
// drives the session and cart stores the way the web page layer does, one
// command per user action. State persists in the local state database, so a
// login in one invocation carries into the next.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rs/zerolog"

	"github.com/example/doot/internal/api"
	"github.com/example/doot/internal/cart"
	"github.com/example/doot/internal/config"
	"github.com/example/doot/internal/guard"
	"github.com/example/doot/internal/models"
	"github.com/example/doot/internal/notify"
	"github.com/example/doot/internal/session"
	"github.com/example/doot/internal/storage"
)

type app struct {
	session *session.Store
	cart    *cart.Store
	client  *api.Client
}

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	store, err := storage.Open(cfg.StatePath)
	if err != nil {
		log.Fatalf("failed to open state database: %v", err)
	}
	defer store.Close()

	notifier := notify.NewLogNotifier(logger)
	client := api.New(api.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.RequestTimeout,
		Store:    store,
		Notifier: notifier,
		Logger:   logger,
	})

	ctx := context.Background()
	a := &app{
		session: session.New(client, store, notifier, logger),
		cart:    cart.New(store, notifier, logger),
		client:  client,
	}
	a.session.Initialize(ctx)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.session.Logout(ctx)
		return nil
	case "profile":
		return a.profile(ctx, args)
	case "seller":
		return a.seller(ctx, args)
	case "products":
		return a.products(ctx, args)
	case "cart":
		return a.cartCommand(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	_ = fs.Parse(args)

	ok := a.session.Register(ctx, api.RegisterData{
		Email:           *email,
		Password:        *password,
		PasswordConfirm: *password,
		FirstName:       *first,
		LastName:        *last,
	})
	if !ok {
		return fmt.Errorf("registration failed: %s", a.session.Err())
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	if !a.session.Login(ctx, *email, *password) {
		return fmt.Errorf("login failed: %s", a.session.Err())
	}
	return nil
}

func (a *app) profile(ctx context.Context, args []string) error {
	if err := a.requireAccess(guard.Access{RequireAuth: true}); err != nil {
		return err
	}

	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	first := fs.String("first", "", "new first name")
	last := fs.String("last", "", "new last name")
	phone := fs.String("phone", "", "new phone number")
	_ = fs.Parse(args)

	update := api.ProfileUpdate{}
	changed := false
	if *first != "" {
		update.FirstName = first
		changed = true
	}
	if *last != "" {
		update.LastName = last
		changed = true
	}
	if *phone != "" {
		update.PhoneNumber = phone
		changed = true
	}

	if changed {
		if !a.session.UpdateProfile(ctx, update) {
			return fmt.Errorf("profile update failed: %s", a.session.Err())
		}
	}

	user := a.session.User()
	fmt.Printf("%s <%s>\n", user.FullName(), user.Email)
	if profile := a.session.SellerProfile(); profile != nil {
		fmt.Printf("seller: %s (rating %.1f)\n", profile.BusinessName, profile.Rating)
	}
	return nil
}

func (a *app) seller(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "create" {
		if err := a.requireAccess(guard.Access{RequireAuth: true}); err != nil {
			return err
		}

		fs := flag.NewFlagSet("seller create", flag.ExitOnError)
		name := fs.String("name", "", "business name")
		description := fs.String("description", "", "business description")
		_ = fs.Parse(args[1:])

		ok := a.session.CreateSellerProfile(ctx, api.SellerProfileInput{
			BusinessName:        *name,
			BusinessDescription: *description,
		})
		if !ok {
			return fmt.Errorf("seller profile creation failed: %s", a.session.Err())
		}
		return nil
	}

	if err := a.requireAccess(guard.Access{RequireSeller: true}); err != nil {
		return err
	}

	profile := a.session.SellerProfile()
	if profile == nil {
		fmt.Println("no seller profile")
		return nil
	}
	fmt.Printf("%s (verified: %t, sales: %.2f)\n", profile.BusinessName, profile.IsVerified, profile.TotalSales)
	return nil
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	page := fs.Int("page", 1, "catalog page")
	_ = fs.Parse(args)

	result, err := a.client.Products(ctx, *page)
	if err != nil {
		return err
	}
	for _, p := range result.Results {
		fmt.Printf("%4d  %-30s  $%.2f  (stock %d)\n", p.ID, p.Name, p.Price, p.StockQuantity)
	}
	return nil
}

func (a *app) cartCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printCart(a.cart.Cart())
		return nil
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("cart add", flag.ExitOnError)
		productID := fs.Int64("product", 0, "product id")
		variantID := fs.Int64("variant", 0, "variant id")
		quantity := fs.Int("qty", 1, "quantity")
		_ = fs.Parse(args[1:])

		product, err := a.client.Product(ctx, *productID)
		if err != nil {
			return err
		}
		var variant *models.ProductVariant
		if *variantID != 0 {
			for i := range product.Variants {
				if product.Variants[i].ID == *variantID {
					variant = &product.Variants[i]
					break
				}
			}
			if variant == nil {
				return fmt.Errorf("product %d has no variant %d", *productID, *variantID)
			}
		}
		return a.cart.AddToCart(*product, *quantity, variant)

	case "update":
		fs := flag.NewFlagSet("cart update", flag.ExitOnError)
		itemID := fs.Int64("item", 0, "cart line id")
		quantity := fs.Int("qty", 0, "new quantity (0 removes)")
		_ = fs.Parse(args[1:])
		return a.cart.UpdateQuantity(*itemID, *quantity)

	case "remove":
		fs := flag.NewFlagSet("cart remove", flag.ExitOnError)
		itemID := fs.Int64("item", 0, "cart line id")
		_ = fs.Parse(args[1:])
		a.cart.RemoveFromCart(*itemID)
		return nil

	case "clear":
		a.cart.ClearCart()
		return nil

	default:
		return fmt.Errorf("unknown cart subcommand %q", args[0])
	}
}

// requireAccess runs the route guard the way a page would before rendering.
func (a *app) requireAccess(access guard.Access) error {
	decision := guard.Evaluate(guard.Session{
		IsAuthenticated: a.session.IsAuthenticated(),
		IsLoading:       a.session.IsLoading(),
		User:            a.session.User(),
		SellerProfile:   a.session.SellerProfile(),
	}, access)

	switch decision.Action {
	case guard.ShowLoading:
		return fmt.Errorf("session still loading, try again")
	case guard.Redirect:
		switch decision.Target {
		case guard.TargetLogin:
			return fmt.Errorf("please login first")
		case guard.TargetCreateSellerProfile:
			return fmt.Errorf("no seller profile yet, run: storefront seller create")
		default:
			return fmt.Errorf("access denied")
		}
	default:
		return nil
	}
}

func printCart(c models.Cart) {
	if len(c.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, item := range c.Items {
		name := item.Product.Name
		if item.Variant != nil {
			name = fmt.Sprintf("%s (%s %s)", name, item.Variant.Name, item.Variant.Value)
		}
		fmt.Printf("%d  %-36s  x%d  $%.2f\n", item.ID, name, item.Quantity, item.TotalPrice)
	}
	fmt.Printf("items: %d  subtotal: $%.2f  tax: $%.2f  shipping: $%.2f  discount: $%.2f  total: $%.2f\n",
		c.TotalItems, c.Subtotal, c.TaxAmount, c.ShippingAmount, c.DiscountAmount, c.TotalAmount)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: storefront <command> [flags]

commands:
  register  -email -password -first -last
  login     -email -password
  logout
  profile   [-first -last -phone]
  seller    [create -name -description]
  products  [-page]
  cart      [add|update|remove|clear]`)
}
