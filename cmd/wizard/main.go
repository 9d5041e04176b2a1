package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"StudySpace/config"
	"StudySpace/internal/api"
	"StudySpace/internal/auth"
	"StudySpace/internal/model"
	"StudySpace/internal/payment"
	"StudySpace/internal/session"
	"StudySpace/internal/store"
	"StudySpace/pkg/logger"
)

func main() {
	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	st, closeStore, err := buildStore(ctx)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize state store", zap.Error(err))
	}
	defer closeStore()

	client := api.NewClient(api.Options{
		BaseURL:    config.Cfg.APIBaseURL,
		Timeout:    time.Duration(config.Cfg.APITimeoutSec) * time.Second,
		RetryCount: config.Cfg.APIRetryCount,
	}, logger.Logger)
	defer client.Close()

	ctrl := session.NewController(st, client, nil, logger.Logger)

	w := &wizard{
		ctx:    ctx,
		in:     bufio.NewReader(os.Stdin),
		client: client,
		ctrl:   ctrl,
		store:  st,
	}
	if err := w.run(); err != nil {
		logger.Logger.Fatal("Wizard aborted", zap.Error(err))
	}
}

func buildStore(ctx context.Context) (store.Store, func(), error) {
	switch config.Cfg.StateBackend {
	case "redis":
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     config.Cfg.RedisAddr,
			Password: config.Cfg.RedisPassword,
			DB:       config.Cfg.RedisDB,
			Prefix:   config.Cfg.RedisPrefix,
		}, logger.Logger)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Close() }, nil
	default:
		fs, err := store.NewFileStore(config.Cfg.GetStateDir(), logger.Logger)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

type wizard struct {
	ctx    context.Context
	in     *bufio.Reader
	client *api.Client
	ctrl   *session.Controller
	store  store.Store
}

func (w *wizard) run() error {
	// 恢复上次进度，带着上次的 token 继续
	state, err := w.store.Restore(w.ctx)
	if err == nil && state.Token != "" {
		w.client.SetToken(state.Token)
	}

	route, resumed, err := w.ctrl.Resume(w.ctx)
	if err != nil {
		return err
	}
	if resumed {
		fmt.Println("Resuming where you left off:", route)
		return w.dispatch(route)
	}

	fmt.Println("Welcome to StudySpace.")
	fmt.Println("  [1] Log in")
	fmt.Println("  [2] Create account")
	choice := w.prompt("Choose")

	if choice == "2" {
		return w.register()
	}
	return w.login()
}

func (w *wizard) login() error {
	req := api.LoginRequest{
		Email:    w.prompt("Email"),
		Password: w.prompt("Password"),
	}

	raw, err := w.client.Login(w.ctx, req)
	if err != nil {
		fmt.Println("Login failed:", err)
		return w.login()
	}

	creds, err := auth.NormalizeLogin(raw)
	if err != nil {
		return err
	}
	w.client.SetToken(creds.Token)

	route, err := w.ctrl.ResolveDestination(w.ctx, creds)
	if err != nil {
		return err
	}

	fmt.Println("Signed in. Destination:", route)
	return w.dispatch(route)
}

func (w *wizard) register() error {
	req := api.RegistrationRequest{
		Name:     w.prompt("Full name"),
		Email:    w.prompt("Email"),
		Password: w.prompt("Password"),
	}

	result, err := w.client.Register(w.ctx, req)
	if err != nil {
		fmt.Println("Registration failed:", err)
		return w.register()
	}

	if err := w.ctrl.StartSession(w.ctx, result); err != nil {
		return err
	}
	w.client.SetToken(result.Token)

	return w.dispatch(model.RouteAdmission)
}

func (w *wizard) dispatch(route model.Route) error {
	for {
		var err error
		switch route {
		case model.RouteAdmission:
			route, err = w.admissionStep()
		case model.RoutePlan:
			route, err = w.planStep()
		case model.RouteSeat:
			route, err = w.seatStep()
		case model.RoutePayment:
			route, err = w.paymentStep()
		case model.RouteStudentProfile:
			fmt.Println("All set. Your membership is active.")
			return nil
		case model.RouteAdminDashboard:
			fmt.Println("Admin accounts manage StudySpace from the web console.")
			return nil
		default:
			return fmt.Errorf("unknown destination %q", route)
		}

		if err != nil {
			return err
		}
	}
}

func (w *wizard) admissionStep() (model.Route, error) {
	fmt.Println("-- Admission details --")
	details := model.AdmissionDetails{
		FullName: w.prompt("Full name"),
		Phone:    w.prompt("Phone"),
		Address:  w.prompt("Address"),
	}

	ack, err := w.client.SubmitAdmission(w.ctx, details)
	if err != nil {
		fmt.Println("Submission rejected:", err)
		return model.RouteAdmission, nil
	}
	return w.ctrl.AdvanceStep(w.ctx, ack)
}

func (w *wizard) planStep() (model.Route, error) {
	fmt.Println("-- Choose a plan --")
	plans, err := w.client.AvailablePlans(w.ctx)
	if err != nil {
		fmt.Println("Could not load plans:", err)
		return model.RoutePlan, nil
	}

	for i, plan := range plans {
		fmt.Printf("  [%d] %s (%s) - %d\n", i+1, plan.Name, plan.Duration, plan.Price)
	}

	idx, err := strconv.Atoi(w.prompt("Plan number"))
	if err != nil || idx < 1 || idx > len(plans) {
		fmt.Println("Invalid choice.")
		return model.RoutePlan, nil
	}

	ack, err := w.client.SelectPlan(w.ctx, plans[idx-1].ID)
	if err != nil {
		fmt.Println("Submission rejected:", err)
		return model.RoutePlan, nil
	}
	return w.ctrl.AdvanceStep(w.ctx, ack)
}

func (w *wizard) seatStep() (model.Route, error) {
	fmt.Println("-- Choose a seat --")
	seats, err := w.client.AvailableSeats(w.ctx, "")
	if err != nil {
		fmt.Println("Could not load seats:", err)
		return model.RouteSeat, nil
	}

	free := make([]model.Seat, 0, len(seats))
	for _, seat := range seats {
		if !seat.Booked {
			free = append(free, seat)
		}
	}

	for i, seat := range free {
		fmt.Printf("  [%d] seat %s (zone %s)\n", i+1, seat.Number, seat.Zone)
	}

	idx, err := strconv.Atoi(w.prompt("Seat number"))
	if err != nil || idx < 1 || idx > len(free) {
		fmt.Println("Invalid choice.")
		return model.RouteSeat, nil
	}

	ack, err := w.client.SelectSeat(w.ctx, free[idx-1].ID)
	if err != nil {
		fmt.Println("Submission rejected:", err)
		return model.RouteSeat, nil
	}
	return w.ctrl.AdvanceStep(w.ctx, ack)
}

func (w *wizard) paymentStep() (model.Route, error) {
	fmt.Println("-- Payment --")
	fmt.Println("  [1] Cash at the front desk (admin OTP)")
	fmt.Println("  [2] Online checkout")

	adapter := payment.NewAdapter(w.client, &terminalGateway{
		in:    w.in,
		keyID: config.Cfg.CheckoutKeyID,
	}, logger.Logger)

	switch w.prompt("Method") {
	case "2":
		if err := adapter.SelectOnline(w.ctx); err != nil {
			fmt.Println("Checkout unavailable:", err)
			return model.RoutePayment, nil
		}
		select {
		case res := <-adapter.Results():
			switch res.State {
			case payment.StateSettled:
				return w.finish(res.Creds)
			case payment.StateAbandoned:
				fmt.Println("Checkout abandoned. Pick a method again.")
				return model.RoutePayment, nil
			default:
				fmt.Println("Checkout failed:", res.Err)
				return model.RoutePayment, nil
			}
		case <-w.ctx.Done():
			return "", w.ctx.Err()
		case <-time.After(10 * time.Minute):
			fmt.Println("Checkout timed out. Pick a method again.")
			return model.RoutePayment, nil
		}
	default:
		if err := adapter.SelectCash(w.ctx); err != nil {
			fmt.Println("OTP unavailable:", err)
			return model.RoutePayment, nil
		}
		return w.cashLoop(adapter)
	}
}

func (w *wizard) cashLoop(adapter *payment.Adapter) (model.Route, error) {
	otp := adapter.OTP()
	fmt.Printf("Enter the %d-digit OTP (or 'r' to request a new code):\n", otp.Length())

	for {
		input := w.prompt(fmt.Sprintf("Digit %d", adapter.OTP().Focus()+1))
		if input == "r" {
			if err := adapter.RequestNewCode(w.ctx); err != nil {
				fmt.Println("Could not request a new code:", err)
			} else {
				fmt.Println("New code requested, inputs cleared.")
			}
			continue
		}

		settled, err := adapter.EnterDigit(w.ctx, adapter.OTP().Focus(), input)
		if err != nil {
			fmt.Println("Verification failed:", err)
			continue
		}
		if settled {
			creds, _ := adapter.Credentials()
			return w.finish(creds)
		}
	}
}

func (w *wizard) finish(creds auth.Credentials) (model.Route, error) {
	w.client.SetToken(creds.Token)
	return w.ctrl.CompleteFlow(w.ctx, creds)
}

func (w *wizard) prompt(label string) string {
	fmt.Printf("%s: ", label)
	line, err := w.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// terminalGateway 终端版收银台：打印订单信息，由操作员粘贴结算回执或放弃。
// 单发结果通道，投递一次后关闭。
type terminalGateway struct {
	in    *bufio.Reader
	keyID string
}

func (g *terminalGateway) Open(ctx context.Context, order model.PaymentOrder) (<-chan payment.CheckoutOutcome, error) {
	outcomes := make(chan payment.CheckoutOutcome, 1)

	go func() {
		defer close(outcomes)

		fmt.Printf("Pay order %s (%d %s) in your browser, then paste the receipt here.\n",
			order.OrderID, order.Amount, order.Currency)
		if g.keyID != "" {
			fmt.Println("Checkout key:", g.keyID)
		}
		fmt.Println("Format: <paymentId> <signature>, or 'cancel' to abandon.")

		line, err := g.in.ReadString('\n')
		if err != nil {
			outcomes <- payment.CheckoutOutcome{Kind: payment.OutcomeAbandoned}
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == "cancel" {
			outcomes <- payment.CheckoutOutcome{Kind: payment.OutcomeAbandoned}
			return
		}
		if len(fields) < 2 {
			outcomes <- payment.CheckoutOutcome{Kind: payment.OutcomeFailed, Err: fmt.Errorf("incomplete receipt")}
			return
		}

		outcomes <- payment.CheckoutOutcome{
			Kind: payment.OutcomeSettled,
			Proof: model.PaymentProof{
				OrderID:   order.OrderID,
				PaymentID: fields[0],
				Signature: fields[1],
			},
		}
	}()

	return outcomes, nil
}
