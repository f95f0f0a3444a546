// Command pos is a terminal register for the merchandise store. It drives the
// catalog cache, the cart and the transaction wizards against a running API
// server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/campusmerch-pos/api/internal/cart"
	"github.com/campusmerch-pos/api/internal/catalog"
	"github.com/campusmerch-pos/api/internal/client"
	"github.com/campusmerch-pos/api/internal/enum"
	"github.com/campusmerch-pos/api/internal/pricing"
	"github.com/campusmerch-pos/api/internal/wizard"
)

type session struct {
	api     *client.Client
	catalog *catalog.Cache
	cart    *cart.Cart
	mode    string
	in      *bufio.Scanner
}

func main() {
	defaultAPI := os.Getenv("API_BASE_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080"
	}
	baseURL := flag.String("api", defaultAPI, "API server base URL")
	flag.Parse()

	api := client.New(*baseURL)
	cat := catalog.New(api)
	s := &session{
		api:     api,
		catalog: cat,
		cart:    cart.New(cat, enum.ModeFront),
		mode:    enum.ModeFront,
		in:      bufio.NewScanner(os.Stdin),
	}

	fmt.Println("Campus merch POS. Type 'help' for commands.")
	for {
		fmt.Print("> ")
		if !s.in.Scan() {
			return
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := s.dispatch(cmd, args); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func (s *session) dispatch(cmd string, args []string) error {
	ctx := context.Background()
	switch cmd {
	case "help":
		printHelp()
	case "login":
		return s.login(ctx)
	case "logout":
		if err := s.api.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
	case "refresh":
		if err := s.catalog.Refresh(ctx); err != nil {
			return err
		}
		fmt.Printf("catalog: %d products\n", s.catalog.Len())
	case "list":
		s.list(args)
	case "mode":
		return s.switchMode(args)
	case "add":
		if len(args) != 1 {
			return fmt.Errorf("usage: add <product-key>")
		}
		if err := s.cart.AddItem(args[0]); err != nil {
			return err
		}
		s.printCart()
	case "variant":
		return s.cartEdit(args, 2, "variant <line> <label>", func(i int, v string) error {
			return s.cart.SetVariant(i, v)
		})
	case "qty":
		return s.cartEdit(args, 2, "qty <line> <n>", func(i int, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("quantity must be a number")
			}
			return s.cart.SetQuantity(i, n)
		})
	case "rm":
		return s.cartEdit(args, 1, "rm <line>", func(i int, _ string) error {
			return s.cart.RemoveItem(i)
		})
	case "cart":
		s.printCart()
	case "clear":
		s.cart.Clear()
		fmt.Println("cart cleared")
	case "sale":
		return s.runWizard(ctx, wizard.NewSale(s.deps()))
	case "gift":
		return s.runWizard(ctx, wizard.NewGift(s.deps()))
	case "return":
		return s.runWizard(ctx, wizard.NewReturn(s.deps()))
	case "exchange":
		return s.runWizard(ctx, wizard.NewExchange(s.deps()))
	case "transfer":
		return s.runWizard(ctx, wizard.NewTransfer(s.deps()))
	case "restock":
		return s.runWizard(ctx, wizard.NewRestock(s.deps()))
	case "escheat":
		return s.runWizard(ctx, wizard.NewEscheat(s.deps()))
	case "use":
		return s.runWizard(ctx, wizard.NewInternalUse(s.deps()))
	case "borrow":
		return s.runWizard(ctx, wizard.NewTemporaryUse(s.deps()))
	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
	return nil
}

func printHelp() {
	fmt.Println(`commands:
  login / logout          authenticate against the server
  refresh                 reload the catalog
  list [category] [kw]    list products, optionally filtered
  mode front|warehouse    switch stock mode (clears the cart)
  add <key>               add a product to the cart
  variant <line> <label>  change a line's variant
  qty <line> <n>          change a line's quantity
  rm <line>               remove a cart line
  cart / clear            show or empty the cart
  sale gift return exchange transfer restock escheat use borrow
                          start a transaction flow
  quit`)
}

func (s *session) deps() wizard.Deps {
	return wizard.Deps{Catalog: s.catalog, Cart: s.cart, Backend: s.api}
}

func (s *session) login(ctx context.Context) error {
	account := s.prompt("account: ")
	password := s.prompt("password: ")
	name, err := s.api.Login(ctx, account, password)
	if err != nil {
		return err
	}
	fmt.Printf("welcome, %s\n", name)
	if err := s.catalog.Refresh(ctx); err != nil {
		log.Printf("ERROR: catalog refresh: %v", err)
	}
	return nil
}

func (s *session) switchMode(args []string) error {
	if len(args) != 1 || !enum.ValidMode(args[0]) {
		return fmt.Errorf("usage: mode front|warehouse")
	}
	if args[0] == s.mode {
		return nil
	}
	s.mode = args[0]
	s.cart = cart.New(s.catalog, s.mode)
	fmt.Printf("mode: %s (cart cleared)\n", s.mode)
	return nil
}

func (s *session) list(args []string) {
	category := catalog.CategoryAll
	keyword := ""
	if len(args) > 0 {
		category = args[0]
	}
	if len(args) > 1 {
		keyword = args[1]
	}
	entries := s.catalog.Filter(category, keyword)
	if len(entries) == 0 {
		fmt.Println("no products (did you 'refresh'?)")
		return
	}
	for _, e := range entries {
		fmt.Printf("%-20s %-24s %6d  %s\n", e.Key, e.Product.Name, e.Product.Price, e.Product.Category)
		for _, v := range catalog.SortedVariants(e.Product) {
			fmt.Printf("    %-8s front %3d  warehouse %3d\n", v.Label, v.Front, v.Warehouse)
		}
	}
}

func (s *session) printCart() {
	lines := s.cart.Lines()
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for i, l := range lines {
		p, _ := s.catalog.Get(l.Key)
		fmt.Printf("%2d. %-24s %-8s x%d\n", i, p.Name, l.Variant, l.Qty)
	}
	fmt.Printf("total: %d\n", s.cart.Total())
}

func (s *session) cartEdit(args []string, want int, usage string, apply func(i int, v string) error) error {
	if len(args) != want {
		return fmt.Errorf("usage: %s", usage)
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("line must be a number")
	}
	extra := ""
	if want > 1 {
		extra = args[1]
	}
	if err := apply(i, extra); err != nil {
		return err
	}
	s.printCart()
	return nil
}

// runWizard prompts per step until the flow finishes. An empty line cancels.
func (s *session) runWizard(ctx context.Context, w *wizard.Wizard) error {
	fmt.Printf("-- %s --\n", w.Flow())
	for !w.Done() {
		in, ok, err := s.stepInput(ctx, w)
		if err != nil {
			return err
		}
		if !ok {
			w.Cancel()
			fmt.Println("cancelled")
			return nil
		}
		if err := w.Advance(ctx, in); err != nil {
			if w.Done() {
				return fmt.Errorf("%s failed: %w (cart preserved)", w.Flow(), err)
			}
			fmt.Println("error:", err)
		}
	}
	if res := w.Result; res != nil {
		switch w.Flow() {
		case enum.FlowSale, enum.FlowReturn:
			fmt.Printf("%s complete, total %d\n", w.Flow(), res.Total)
		case enum.FlowExchange:
			fmt.Printf("exchange complete, customer pays %d\n", res.Diff)
		default:
			fmt.Printf("%s complete\n", w.Flow())
		}
	}
	return nil
}

// stepInput gathers the input the current step needs. ok is false on cancel.
func (s *session) stepInput(ctx context.Context, w *wizard.Wizard) (wizard.Input, bool, error) {
	var in wizard.Input
	in.Record = -1

	switch w.StepName() {
	case wizard.StepIdentityChannel:
		fmt.Printf("identities: %s\n", strings.Join(enum.Identities, " "))
		in.Identity = s.prompt("identity: ")
		if in.Identity == "" {
			return in, false, nil
		}
		in.Channel = s.prompt("channel (in-store/online): ")

	case wizard.StepConfirmItems:
		s.printCart()
		if d := w.Draft(); d.OldItems != nil {
			fmt.Println("returning:")
			for _, it := range d.OldItems {
				fmt.Printf("    %-24s %-8s x%d\n", it.Name, it.Size, it.Qty)
			}
		}
		if !s.confirm("submit these items? [y/N] ") {
			return in, false, nil
		}

	case wizard.StepConfirmDelta:
		d := w.Draft()
		delta := pricing.ExchangeDelta(s.catalog.PriceByName, d.Identity, d.OldItems, s.cart.Snapshot())
		fmt.Printf("returned value %d, new value %d, customer pays %d\n",
			delta.OldTotal, delta.NewTotal, delta.Diff)
		if !s.confirm("confirm exchange? [y/N] ") {
			return in, false, nil
		}

	case wizard.StepOrderID:
		in.Text = s.prompt("order id: ")
		if in.Text == "" {
			return in, false, nil
		}

	case wizard.StepGiver:
		in.Text = s.prompt("giver: ")
		if in.Text == "" {
			return in, false, nil
		}

	case wizard.StepReason:
		in.Text = s.prompt("reason: ")
		if in.Text == "" {
			return in, false, nil
		}

	case wizard.StepSelectRecord:
		records, err := w.Records(ctx)
		if err != nil {
			return in, false, err
		}
		if len(records) == 0 {
			return in, false, fmt.Errorf("no recent return records")
		}
		for i, rec := range records {
			fmt.Printf("%2d. %s\n", i, rec.Time)
			for _, it := range rec.Items {
				fmt.Printf("    %-24s %-8s x%d\n", it.Name, it.Size, it.Qty)
			}
		}
		raw := s.prompt("record: ")
		if raw == "" {
			return in, false, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, false, fmt.Errorf("record must be a number")
		}
		in.Record = n

	case wizard.StepQuantities:
		for _, l := range s.cart.Lines() {
			raw := s.prompt(fmt.Sprintf("%s %s qty: ", l.Key, l.Variant))
			if raw == "" {
				return in, false, nil
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				return in, false, fmt.Errorf("quantity must be a number")
			}
			in.Quantities = append(in.Quantities, n)
		}
	}
	return in, true, nil
}

func (s *session) prompt(label string) string {
	fmt.Print(label)
	if !s.in.Scan() {
		return ""
	}
	return strings.TrimSpace(s.in.Text())
}

func (s *session) confirm(label string) bool {
	answer := strings.ToLower(s.prompt(label))
	return answer == "y" || answer == "yes"
}
