package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wolfman30/healthcare-client/internal/app"
	"github.com/wolfman30/healthcare-client/internal/appointments"
	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/booking"
	"github.com/wolfman30/healthcare-client/internal/directory"
	"github.com/wolfman30/healthcare-client/internal/models"
	"github.com/wolfman30/healthcare-client/internal/navigation"
	"github.com/wolfman30/healthcare-client/internal/session"
)

const helpText = `commands:
  pages                              list pages you can open
  go <page>                          open home, doctors, appointment or search
  login <user|doctor> <email> <pw>   log in
  signup-user | signup-doctor        create an account (prompts for fields)
  logout                             log out
  doctors [query]                    list doctors, filtered by name
  book <doctorId>                    open the booking form
  name <text> | day <day> | submit   fill in and send the booking form
  close                              close the booking form or login overlay
  search <query> | next              search doctors by name
  appointments                       list appointment requests
  approve <id> | cancel <id>         answer a pending request
  dismiss                            hide the notification
  state                              show the current page and session
  quit                               exit`

// shell is the line-oriented front end.
type shell struct {
	app      *app.App
	in       *bufio.Scanner
	out      io.Writer
	notified uint64
}

func newShell(a *app.App, in io.Reader, out io.Writer) *shell {
	return &shell{app: a, in: bufio.NewScanner(in), out: out}
}

func (s *shell) run(ctx context.Context) error {
	s.println("Healthcare booking client. Type 'help' for commands.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(s.out, s.prompt())
		line, ok := s.readLine()
		if !ok {
			return s.in.Err()
		}
		if s.exec(ctx, line) {
			return nil
		}
	}
}

func (s *shell) prompt() string {
	st := s.app.State()
	if st.Overlay != navigation.OverlayNone {
		return fmt.Sprintf("[%s/%s]> ", st.Page, st.Overlay)
	}
	return fmt.Sprintf("[%s]> ", st.Page)
}

func (s *shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// exec runs one command and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	var err error
	switch cmd {
	case "help", "?":
		s.println(helpText)
	case "quit", "exit":
		return true
	case "pages":
		s.pages()
	case "state":
		s.state()
	case "go":
		err = s.goTo(ctx, args)
	case "login":
		err = s.login(ctx, args)
	case "signup-user":
		err = s.signupUser(ctx)
	case "signup-doctor":
		err = s.signupDoctor(ctx)
	case "logout":
		s.app.Logout(ctx)
		s.println("Logged out.")
	case "doctors":
		err = s.doctors(rest)
	case "book":
		err = s.book(ctx, args)
	case "name":
		err = s.withFlow(func(f *booking.Flow) error { return f.SetPatientName(rest) })
	case "day":
		err = s.withFlow(func(f *booking.Flow) error { return f.SelectDay(rest) })
	case "submit":
		err = s.withFlow(func(f *booking.Flow) error { return inlineOnly(f.Submit(ctx)) })
		s.bookingState()
	case "close":
		s.close()
	case "search":
		err = s.search(rest)
	case "next":
		err = s.next()
	case "appointments":
		err = s.appointments()
	case "approve":
		err = s.act(ctx, args, models.DecisionApprove)
	case "cancel":
		err = s.act(ctx, args, models.DecisionCancel)
	case "dismiss":
		s.app.Notifier().Dismiss()
	default:
		err = fmt.Errorf("unknown command %q, type 'help'", cmd)
	}

	if err != nil {
		s.println("! " + apperr.Message(err))
	}
	s.flushNotification()
	return false
}

func (s *shell) flushNotification() {
	n := s.app.Notifier()
	if n.Count() == s.notified {
		return
	}
	s.notified = n.Count()
	if msg, ok := n.Current(); ok {
		s.println(">> " + msg + " (dismiss to hide)")
	}
}

func (s *shell) pages() {
	current := s.app.State().Page
	for _, p := range s.app.ReachablePages() {
		marker := " "
		if p == current {
			marker = "*"
		}
		s.printf("%s %s\n", marker, p)
	}
	if s.app.CanOpenAuth() {
		s.println("  (login / signup-user / signup-doctor available)")
	}
}

func (s *shell) state() {
	st := s.app.State()
	s.printf("page: %s  overlay: %s\n", st.Page, st.Overlay)
	if sess, ok := s.app.Session(); ok {
		token := "yes"
		if !sess.HasToken() {
			token = "no"
		}
		s.printf("signed in as %s (%s, id %s, token %s)\n", sess.Email, sess.Role, sess.ID, token)
	} else {
		s.println("not signed in")
	}
}

func (s *shell) goTo(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: go <page>")
	}
	page, err := navigation.ParsePage(args[0])
	if err != nil {
		return err
	}
	if err := s.app.Navigate(ctx, page); err != nil {
		return err
	}
	switch page {
	case navigation.PageDoctors:
		return s.doctors("")
	case navigation.PageAppointment:
		return s.appointments()
	case navigation.PageSearch:
		s.println("Type 'search <name>' to find a doctor.")
	}
	return nil
}

func (s *shell) login(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: login <user|doctor> <email> <password>")
	}
	role, err := models.ParseRole(args[0])
	if err != nil {
		return err
	}
	if err := s.app.OpenLogin(ctx, role); err != nil {
		return err
	}
	sess, err := s.app.Login(ctx, role, args[1], args[2])
	if err != nil {
		return err
	}
	s.printf("Welcome, %s.\n", sess.Email)
	return nil
}

func (s *shell) ask(label string) string {
	fmt.Fprintf(s.out, "  %s: ", label)
	line, _ := s.readLine()
	return line
}

func (s *shell) signupUser(ctx context.Context) error {
	if err := s.app.OpenSignup(ctx, models.RoleUser); err != nil {
		return err
	}
	form := session.UserSignup{
		Name:        s.ask("Full name"),
		Email:       s.ask("Email"),
		Password:    s.ask("Password"),
		PhoneNumber: s.ask("Phone number"),
		City:        s.ask("City"),
		Province:    s.ask("Province"),
		Country:     s.ask("Country"),
		Service:     s.ask("Service"),
		Date:        s.ask("Registration date (YYYY-MM-DD)"),
		ZipCode:     s.ask("Zip code"),
	}
	sess, err := s.app.Signup(ctx, form)
	if err != nil {
		return err
	}
	s.printf("Account created. Welcome, %s.\n", sess.Email)
	return nil
}

func (s *shell) signupDoctor(ctx context.Context) error {
	if err := s.app.OpenSignup(ctx, models.RoleDoctor); err != nil {
		return err
	}
	form := session.DoctorSignup{
		Name:        s.ask("Name"),
		Email:       s.ask("Email"),
		Password:    s.ask("Password"),
		Age:         s.ask("Age"),
		Service:     s.ask("Service"),
		Education:   s.ask("Education"),
		Specialized: s.ask("Specialization"),
		Image:       s.ask("Image URL"),
		Available:   true,
	}
	days := splitList(s.ask("Available days (comma separated)"))
	form.Availability = []models.Availability{{Days: days, From: s.ask("From"), To: s.ask("To")}}

	sess, err := s.app.Signup(ctx, form)
	if err != nil {
		return err
	}
	s.printf("Doctor account created. Welcome, %s.\n", sess.Email)
	return nil
}

func (s *shell) directory() (*directory.ViewModel, error) {
	vm := s.app.Directory()
	if vm == nil {
		return nil, errors.New("open the doctors page first: go doctors")
	}
	return vm, nil
}

func (s *shell) doctors(query string) error {
	vm, err := s.directory()
	if err != nil {
		return err
	}
	if vm.Unavailable() {
		s.println("! " + directory.UnavailableMessage)
	}
	all := vm.Doctors()
	if len(all) == 0 {
		s.println("No doctors are currently available. Please check back later.")
		return nil
	}
	list := directory.FilterDoctors(all, query)
	if len(list) == 0 {
		s.printf("No doctors found for %q.\n", query)
		return nil
	}
	for _, d := range list {
		s.printDoctor(d)
	}
	return nil
}

func (s *shell) printDoctor(d models.Doctor) {
	var week strings.Builder
	for _, slot := range directory.WeekSchedule(d) {
		if slot.Available {
			week.WriteString(slot.Day + " ")
		} else {
			week.WriteString("--- ")
		}
	}
	s.printf("%-26s Dr %s | %s | %s | %d yrs | %s\n", d.ID, d.Name, d.Specialization, d.Location, d.ExperienceYears, strings.TrimSpace(week.String()))
}

func (s *shell) book(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: book <doctorId>")
	}
	vm, err := s.directory()
	if err != nil {
		return err
	}
	flow, err := vm.OpenBooking(ctx, args[0])
	if err != nil {
		return err
	}
	days := flow.AvailableDays()
	s.printf("Booking with Dr %s at %s.\n", flow.Doctor().Name, flow.Slot().From)
	if len(days) == 0 {
		s.println("No available days listed.")
	} else {
		s.println("Available days: " + strings.Join(days, ", "))
	}
	s.println("Use 'name <your name>', 'day <day>' and 'submit'.")
	return nil
}

func (s *shell) withFlow(fn func(*booking.Flow) error) error {
	vm, err := s.directory()
	if err != nil {
		return err
	}
	flow := vm.ActiveBooking()
	if flow == nil {
		return errors.New("no booking form is open: book <doctorId>")
	}
	return fn(flow)
}

func (s *shell) bookingState() {
	vm := s.app.Directory()
	if vm == nil || vm.ActiveBooking() == nil {
		return
	}
	snap := vm.ActiveBooking().Snapshot()
	s.printf("booking: %s\n", snap.State)
}

func (s *shell) close() {
	if vm := s.app.Directory(); vm != nil && vm.ActiveBooking() != nil {
		vm.CloseBooking()
		s.println("Booking form closed.")
		return
	}
	if s.app.State().Overlay != navigation.OverlayNone {
		s.app.CloseOverlay()
	}
}

func (s *shell) searchView() (*directory.Search, error) {
	search := s.app.Search()
	if search == nil {
		return nil, errors.New("open the search page first: go search")
	}
	return search, nil
}

func (s *shell) search(query string) error {
	search, err := s.searchView()
	if err != nil {
		return err
	}
	s.printResults(search, search.SetQuery(query))
	return nil
}

func (s *shell) next() error {
	search, err := s.searchView()
	if err != nil {
		return err
	}
	s.printResults(search, search.Next())
	return nil
}

func (s *shell) printResults(search *directory.Search, results []models.Doctor) {
	if strings.TrimSpace(search.Query()) != "" && len(results) == 0 {
		s.println("No doctors found.")
		return
	}
	for _, d := range results {
		s.printf("%s | %s | %s\n", d.Name, d.Specialization, d.Education)
	}
	if search.HasMore() {
		s.printf("(%d more, type 'next')\n", search.MatchCount()-len(results))
	}
}

func (s *shell) review() (*appointments.Review, error) {
	review := s.app.AppointmentReview()
	if review == nil {
		return nil, errors.New("open the appointment page first: go appointment")
	}
	return review, nil
}

func (s *shell) appointments() error {
	review, err := s.review()
	if err != nil {
		return err
	}
	if msg := review.PageError(); msg != "" {
		s.println("! " + msg)
	}
	items := review.Items()
	if len(items) == 0 && review.PageError() == "" {
		s.println("No pending requests to show.")
		return nil
	}
	for _, item := range items {
		actions := ""
		if appointments.Actionable(item) {
			actions = "  [approve|cancel]"
		}
		s.printf("%s | %s | %s %s | %s%s\n", item.ID, item.PatientName, item.Date, item.Time, item.Status, actions)
	}
	return nil
}

func (s *shell) act(ctx context.Context, args []string, decision models.Decision) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <id>", decision)
	}
	review, err := s.review()
	if err != nil {
		return err
	}
	return inlineOnly(review.Act(ctx, args[0], decision))
}

// inlineOnly keeps the errors that are not already on the notifier.
func inlineOnly(err error) error {
	if apperr.Is(err, apperr.KindValidation) {
		return err
	}
	return nil
}

func (s *shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
