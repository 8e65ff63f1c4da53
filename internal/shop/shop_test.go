package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/docstore"
	"github.com/gogogo1024/storefront-bot/internal/events"
	"github.com/gogogo1024/storefront-bot/internal/store"
)

type fakePlatform struct {
	mu         sync.Mutex
	nextID     int
	created    []TicketChannel
	renamed    map[common.ID]string
	deleted    []common.ID
	announced  []common.ID
	posted     []common.Product
	updated    []common.Product
	removedMsg []common.ID
	stored     []Attachment
	categories map[common.ID]bool

	renameErr error
	deleteErr error
	postErr   error
	mediaErr  error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{nextID: 500, renamed: map[common.ID]string{}, categories: map[common.ID]bool{}}
}

func (f *fakePlatform) id() common.ID {
	f.nextID++
	return common.ID(fmt.Sprint(f.nextID))
}

func (f *fakePlatform) CreateTicketChannel(_ context.Context, req TicketChannel) (common.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return f.id(), nil
}

func (f *fakePlatform) IsCategory(_ context.Context, _, channel common.ID) bool {
	return f.categories[channel]
}

func (f *fakePlatform) RenameChannel(_ context.Context, channel common.ID, name string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	f.renamed[channel] = name
	return nil
}

func (f *fakePlatform) DeleteChannel(_ context.Context, channel common.ID) error {
	f.deleted = append(f.deleted, channel)
	return f.deleteErr
}

func (f *fakePlatform) AnnounceTicket(_ context.Context, channel, _ common.ID, _ common.Ticket, _ []common.ID) error {
	f.announced = append(f.announced, channel)
	return nil
}

func (f *fakePlatform) PostProduct(_ context.Context, _ common.ID, p common.Product) (common.ID, error) {
	if f.postErr != nil {
		return "", f.postErr
	}
	f.posted = append(f.posted, p)
	return f.id(), nil
}

func (f *fakePlatform) UpdateProduct(_ context.Context, p common.Product) error {
	f.updated = append(f.updated, p)
	return nil
}

func (f *fakePlatform) DeleteProductMessage(_ context.Context, _, message common.ID) error {
	f.removedMsg = append(f.removedMsg, message)
	return nil
}

func (f *fakePlatform) Store(_ context.Context, _ common.ID, a Attachment) (string, error) {
	if f.mediaErr != nil {
		return "", f.mediaErr
	}
	f.stored = append(f.stored, a)
	return "https://cdn.example/stored/" + a.Filename, nil
}

const (
	ownerID   = common.ID("1")
	staffRole = common.ID("77")
	guildID   = common.ID("9000")
)

type fixture struct {
	svc      *Service
	repos    *store.Repos
	platform *fakePlatform
	events   *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := &events.Recorder{}
	f := newFixtureWith(t, rec)
	f.events = rec
	return f
}

func newFixtureWith(t *testing.T, pub events.Publisher) *fixture {
	t.Helper()
	repos := store.New(docstore.New(docstore.NewFileBackend(t.TempDir())), "")
	p := newFakePlatform()
	svc := New(repos, Config{OwnerID: ownerID, PlaceholderImage: "https://cdn.example/placeholder.png", EventTimeout: 50 * time.Millisecond},
		Deps{Channels: p, Showcase: p, Media: p, Events: pub})
	t.Cleanup(func() { _ = svc.Close() })
	_, err := repos.Settings.AddStaffRole(context.Background(), staffRole)
	require.NoError(t, err)
	return &fixture{svc: svc, repos: repos, platform: p}
}

// stalledPublisher blocks every publish until its context ends, like a
// broker that accepts connections and never acknowledges.
type stalledPublisher struct {
	mu      sync.Mutex
	expired []events.Type
}

func (p *stalledPublisher) Publish(ctx context.Context, e events.Event) error {
	<-ctx.Done()
	p.mu.Lock()
	p.expired = append(p.expired, e.Type)
	p.mu.Unlock()
	return ctx.Err()
}

func (p *stalledPublisher) Close() error { return nil }

func buyer(id string) common.Actor { return common.Actor{UserID: common.ID(id), Name: "buyer" + id} }

func staff() common.Actor {
	return common.Actor{UserID: "50", Name: "mod", RoleIDs: []common.ID{"3", staffRole}}
}

func (f *fixture) scope(a common.Actor, channel common.ID) Scope {
	return Scope{Actor: a, GuildID: guildID, ChannelID: channel}
}

func (f *fixture) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.repos.Products.Add(ctx, "Key", decimal.RequireFromString("10.00"), nil, "", "")
	require.NoError(t, err)
	_, err = f.repos.Products.Add(ctx, "Pack", decimal.RequireFromString("5.00"), nil, "", "")
	require.NoError(t, err)
	_, err = f.repos.Products.SetPaymentMethods(ctx, 1, []string{"PayPal"})
	require.NoError(t, err)
	_, err = f.repos.Products.SetPaymentMethods(ctx, 2, []string{"CashApp"})
	require.NoError(t, err)
}

func (f *fixture) openTicket(t *testing.T, a common.Actor) common.ID {
	t.Helper()
	ch, _, err := f.svc.NewTicket(context.Background(), f.scope(a, "10"))
	require.NoError(t, err)
	return ch
}

func TestOwnerIsAlwaysStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ok, err := f.svc.IsStaff(ctx, common.Actor{UserID: ownerID})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = f.svc.IsStaff(ctx, buyer("2"))
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = f.svc.IsStaff(ctx, staff())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAllowedHereIsPermissive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.openTicket(t, buyer("2"))

	ok, err := f.svc.AllowedHere(ctx, buyer("3"), ch)
	require.NoError(t, err)
	require.True(t, ok, "any buyer may act in any ticket")
	ok, err = f.svc.AllowedHere(ctx, buyer("3"), "12345")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = f.svc.AllowedHere(ctx, staff(), "12345")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGuildAllowList(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.svc.GuildAllowed(guildID))
	require.False(t, f.svc.GuildAllowed(""))
	f.svc.cfg.AllowedGuilds = []common.ID{"42"}
	require.False(t, f.svc.GuildAllowed(guildID))
	_, err := f.svc.ListProducts(context.Background(), f.scope(buyer("2"), "10"))
	require.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestCheckoutScenario(t *testing.T) {
	f := newFixture(t)
	f.seedCatalog(t)
	ctx := context.Background()
	b := buyer("2")
	ch := f.openTicket(t, b)
	sc := f.scope(b, ch)

	_, _, err := f.svc.CartAdd(ctx, sc, 1, 2)
	require.NoError(t, err)
	_, _, err = f.svc.CartAdd(ctx, sc, 2, 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.DiscountSet(ctx, f.scope(staff(), ch), 3))

	tot, err := f.svc.Checkout(ctx, sc)
	require.NoError(t, err)
	require.Equal(t, "25", tot.Subtotal.String())
	require.Equal(t, "22", tot.Total.String())
	require.ElementsMatch(t, []string{"PayPal", "CashApp"}, tot.PaymentMethods)

	tk, err := f.repos.Tickets.Find(ctx, ch)
	require.NoError(t, err)
	require.Equal(t, 3, tk.Discount, "ticket mirrors the flat discount")

	require.NoError(t, f.svc.DiscountSet(ctx, f.scope(staff(), ch), 30))
	tot, err = f.svc.CartView(ctx, sc)
	require.NoError(t, err)
	require.True(t, tot.Total.IsZero())

	require.NoError(t, f.svc.Close())
	evs := f.events.Events()
	require.Equal(t, events.CartCheckout, evs[len(evs)-1].Type)
	require.Equal(t, "22", evs[len(evs)-1].Total.String())
}

func TestCheckoutDoesNotWaitForEventDelivery(t *testing.T) {
	pub := &stalledPublisher{}
	f := newFixtureWith(t, pub)
	f.seedCatalog(t)
	ctx := context.Background()
	b := buyer("2")
	ch := f.openTicket(t, b)
	sc := f.scope(b, ch)
	_, _, err := f.svc.CartAdd(ctx, sc, 1, 1)
	require.NoError(t, err)

	start := time.Now()
	tot, err := f.svc.Checkout(ctx, sc)
	require.NoError(t, err)
	require.Equal(t, "10", tot.Total.String())
	require.Less(t, time.Since(start), time.Second)

	require.NoError(t, f.svc.Close())
	require.Equal(t, []events.Type{events.TicketCreated, events.CartCheckout}, pub.expired)
}

func TestCheckoutRejections(t *testing.T) {
	f := newFixture(t)
	f.seedCatalog(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.scope(buyer("2"), "12345"))
	require.ErrorIs(t, err, common.ErrPermissionDenied)

	_, err = f.svc.Checkout(ctx, f.scope(staff(), "12345"))
	require.ErrorIs(t, err, ErrEmptyCart)

	_, _, err = f.svc.CartAdd(ctx, f.scope(staff(), "12345"), 1, 1)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, f.scope(staff(), "12345"))
	require.ErrorIs(t, err, common.ErrNotTicket)

	_, _, err = f.svc.CartAdd(ctx, f.scope(staff(), "12345"), 99, 1)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestStaleProductSkippedAtCheckout(t *testing.T) {
	f := newFixture(t)
	f.seedCatalog(t)
	ctx := context.Background()
	b := buyer("2")
	ch := f.openTicket(t, b)
	sc := f.scope(b, ch)
	_, _, err := f.svc.CartAdd(ctx, sc, 1, 1)
	require.NoError(t, err)
	_, _, err = f.svc.CartAdd(ctx, sc, 2, 4)
	require.NoError(t, err)

	require.NoError(t, f.repos.Products.SetMessageRef(ctx, 2, "10", "777"))
	_, err = f.svc.RemoveProduct(ctx, f.scope(staff(), "10"), "777")
	require.NoError(t, err)
	require.Equal(t, []common.ID{"777"}, f.platform.removedMsg)

	tot, err := f.svc.Checkout(ctx, sc)
	require.NoError(t, err)
	require.Len(t, tot.Lines, 1)
	require.Equal(t, "10", tot.Total.String())
	cart, err := f.repos.Carts.Get(ctx, b.UserID)
	require.NoError(t, err)
	require.Equal(t, 4, cart["2"], "carts are not touched by product removal")
}

func TestCartRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	f.seedCatalog(t)
	ctx := context.Background()
	sc := f.scope(staff(), "12345")
	_, _, err := f.svc.CartAdd(ctx, sc, 1, 2)
	require.NoError(t, err)
	require.ErrorIs(t, f.svc.CartRemove(ctx, sc, 2), common.ErrNotFound)
	require.NoError(t, f.svc.CartRemove(ctx, sc, 1))
	tot, err := f.svc.CartView(ctx, sc)
	require.NoError(t, err)
	require.True(t, tot.Empty())

	_, _, err = f.svc.CartAdd(ctx, sc, 2, 1)
	require.NoError(t, err)
	other, err := f.svc.CartOther(ctx, sc, staff().UserID)
	require.NoError(t, err)
	require.Equal(t, "5", other.Subtotal.String())
	_, err = f.svc.CartOther(ctx, f.scope(buyer("2"), "12345"), staff().UserID)
	require.ErrorIs(t, err, common.ErrPermissionDenied)

	require.NoError(t, f.svc.CartClear(ctx, sc))
	tot, err = f.svc.CartView(ctx, sc)
	require.NoError(t, err)
	require.True(t, tot.Empty())
}

func TestTicketNumbersIncrease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch1, tk1, err := f.svc.NewTicket(ctx, f.scope(buyer("2"), "10"))
	require.NoError(t, err)
	require.Equal(t, "ticket-1", f.platform.created[0].Name)
	require.Equal(t, []common.ID{staffRole}, f.platform.created[0].StaffRoles)

	_, err = f.svc.CloseTicket(ctx, f.scope(staff(), ch1))
	require.NoError(t, err)
	_, tk2, err := f.svc.NewTicket(ctx, f.scope(buyer("2"), "10"))
	require.NoError(t, err)
	require.Greater(t, tk2.Number, tk1.Number)
	require.Len(t, f.platform.announced, 2)
}

func TestTicketCategoryMustResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SetCategory(ctx, f.scope(staff(), "10"), "321"))
	f.openTicket(t, buyer("2"))
	require.Empty(t, f.platform.created[0].CategoryID, "stale category ignored")

	f.platform.categories["321"] = true
	f.openTicket(t, buyer("2"))
	require.Equal(t, common.ID("321"), f.platform.created[1].CategoryID)

	require.ErrorIs(t, f.svc.SetCategory(ctx, f.scope(buyer("2"), "10"), "321"), common.ErrPermissionDenied)
}

func TestTicketLifecycleForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.openTicket(t, buyer("2"))
	sc := f.scope(staff(), ch)

	_, err := f.svc.MarkPaid(ctx, f.scope(buyer("2"), ch))
	require.ErrorIs(t, err, common.ErrPermissionDenied)

	tk, err := f.svc.MarkPaid(ctx, sc)
	require.NoError(t, err)
	require.Equal(t, common.TicketPaid, tk.Status)
	require.Equal(t, "paid-1", f.platform.renamed[ch])

	_, err = f.svc.MarkPaid(ctx, sc)
	require.NoError(t, err, "re-marking is idempotent")

	f.platform.renameErr = errors.New("missing permissions")
	tk, err = f.svc.MarkDelivered(ctx, sc)
	require.NoError(t, err, "rename failures are swallowed")
	require.True(t, tk.Delivered)
	stored, err := f.repos.Tickets.Find(ctx, ch)
	require.NoError(t, err)
	require.Equal(t, common.TicketDelivered, stored.Status)

	_, err = f.svc.MarkPaid(ctx, sc)
	require.ErrorIs(t, err, common.ErrConflict)

	_, err = f.svc.MarkPaid(ctx, f.scope(staff(), "12345"))
	require.ErrorIs(t, err, common.ErrNotTicket)
}

func TestCloseRemovesRecordEvenIfChannelDeleteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.openTicket(t, buyer("2"))
	sc := f.scope(staff(), ch)
	require.NoError(t, f.svc.DiscountSet(ctx, sc, 5))

	f.platform.deleteErr = errors.New("unknown channel")
	tk, err := f.svc.CloseTicket(ctx, sc)
	require.NoError(t, err)
	require.Equal(t, 1, tk.Number)
	f.svc.DeleteTicketChannel(ctx, ch)
	require.Equal(t, []common.ID{ch}, f.platform.deleted)

	_, err = f.repos.Tickets.Find(ctx, ch)
	require.ErrorIs(t, err, common.ErrNotTicket)
	d, err := f.repos.Discounts.Get(ctx, ch)
	require.NoError(t, err)
	require.Zero(t, d)

	require.NoError(t, f.svc.Close())
	types := []events.Type{}
	for _, e := range f.events.Events() {
		types = append(types, e.Type)
	}
	require.Equal(t, []events.Type{events.TicketCreated, events.TicketClosed}, types)
}

func TestDiscountCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.openTicket(t, buyer("2"))
	sc := f.scope(staff(), ch)

	require.ErrorIs(t, f.svc.DiscountSet(ctx, sc, -1), common.ErrValidation)
	require.ErrorIs(t, f.svc.DiscountSet(ctx, f.scope(buyer("2"), ch), 1), common.ErrPermissionDenied)
	require.ErrorIs(t, f.svc.DiscountSet(ctx, f.scope(staff(), "12345"), 1), common.ErrNotTicket)

	require.NoError(t, f.svc.DiscountSet(ctx, sc, 4))
	d, err := f.svc.DiscountView(ctx, sc)
	require.NoError(t, err)
	require.Equal(t, 4, d)
	require.NoError(t, f.svc.DiscountClear(ctx, sc))
	d, err = f.svc.DiscountView(ctx, sc)
	require.NoError(t, err)
	require.Zero(t, d)
	tk, err := f.svc.TicketInfo(ctx, sc)
	require.NoError(t, err)
	require.Zero(t, tk.Discount)
}

func TestStaffRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.scope(common.Actor{UserID: ownerID}, "10")

	added, err := f.svc.StaffAddRole(ctx, owner, "88")
	require.NoError(t, err)
	require.True(t, added)
	added, err = f.svc.StaffAddRole(ctx, owner, "88")
	require.NoError(t, err)
	require.False(t, added)

	ok, err := f.svc.IsStaff(ctx, common.Actor{UserID: "5", RoleIDs: []common.ID{"88"}})
	require.NoError(t, err)
	require.True(t, ok)

	removed, err := f.svc.StaffRemoveRole(ctx, owner, "88")
	require.NoError(t, err)
	require.True(t, removed)
	_, err = f.svc.StaffRemoveRole(ctx, f.scope(buyer("2"), "10"), staffRole)
	require.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestAddProductImageRelay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.scope(staff(), "10")
	stock := 3
	in := NewProduct{Name: "Key", Price: decimal.RequireFromString("9.99"), Stock: &stock,
		Image: &Attachment{URL: "https://cdn.example/a.png", Filename: "a.png"}}

	// no storage channel: attachment URL
	p, posted, err := f.svc.AddProduct(ctx, sc, in)
	require.NoError(t, err)
	require.True(t, posted)
	require.Equal(t, "https://cdn.example/a.png", p.Image)
	stored, err := f.repos.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, common.ID("10"), stored.ChannelID)
	require.False(t, stored.MessageID.IsZero())

	require.NoError(t, f.repos.Settings.SetImageStorageChannel(ctx, "600"))
	p, _, err = f.svc.AddProduct(ctx, sc, in)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/stored/a.png", p.Image)

	f.platform.mediaErr = errors.New("no access")
	in.Image = &Attachment{Filename: "b.png"}
	p, _, err = f.svc.AddProduct(ctx, sc, in)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/placeholder.png", p.Image)

	in.Image = nil
	_, _, err = f.svc.AddProduct(ctx, sc, in)
	require.ErrorIs(t, err, common.ErrValidation)
	_, _, err = f.svc.AddProduct(ctx, f.scope(buyer("2"), "10"), in)
	require.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestAddProductPostFailureStillStores(t *testing.T) {
	f := newFixture(t)
	f.platform.postErr = errors.New("missing access")
	p, posted, err := f.svc.AddProduct(context.Background(), f.scope(staff(), "10"),
		NewProduct{Name: "Key", Price: decimal.NewFromInt(1), Image: &Attachment{URL: "u"}})
	require.NoError(t, err)
	require.False(t, posted)
	require.Equal(t, 1, p.ID)
}

func TestProductEditsRefreshEmbeds(t *testing.T) {
	f := newFixture(t)
	f.seedCatalog(t)
	ctx := context.Background()
	sc := f.scope(staff(), "10")
	require.NoError(t, f.repos.Products.SetMessageRef(ctx, 1, "10", "700"))

	p, err := f.svc.EditStock(ctx, sc, 1, 4)
	require.NoError(t, err)
	require.Equal(t, "4", p.StockLabel())
	_, err = f.svc.SetDiscountPercent(ctx, sc, 99, 150)
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = f.svc.SetDiscountPercent(ctx, sc, 1, 20)
	require.NoError(t, err)
	require.Len(t, f.platform.updated, 2)

	// product 2 was never posted
	_, err = f.svc.EditStock(ctx, sc, 2, 1)
	require.NoError(t, err)
	require.Len(t, f.platform.updated, 2)

	p, err = f.svc.SetPaymentMethods(ctx, sc, 2, "Tebex, ,PayPal")
	require.NoError(t, err)
	require.Equal(t, []string{"Tebex", "PayPal"}, p.PaymentMethods)

	list, err := f.svc.ListProducts(ctx, f.scope(buyer("2"), "10"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Len(t, f.platform.posted, 2)
}
