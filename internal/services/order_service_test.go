package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/agamariel/artisanmarket/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	client, artisan, supplier, courier, admin, stranger *models.User

	users         *storage.MockUserStorage
	clientOrders  *storage.MockClientOrderStorage
	artisanOrders *storage.MockArtisanOrderStorage
	history       *storage.MockHistoryStorage
	payments      *storage.MockPaymentStorage
	tx            *storage.MockTxManager
	events        *fakePublisher
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		client:   newUser(models.RoleClient),
		artisan:  newUser(models.RoleArtisan),
		supplier: newUser(models.RoleSupplier),
		courier:  newUser(models.RoleDeliveryMan),
		admin:    newUser(models.RoleAdmin),
		stranger: newUser(models.RoleClient),

		clientOrders:  &storage.MockClientOrderStorage{},
		artisanOrders: &storage.MockArtisanOrderStorage{},
		history:       &storage.MockHistoryStorage{},
		payments:      &storage.MockPaymentStorage{},
		tx:            &storage.MockTxManager{},
		events:        &fakePublisher{},
	}
	f.users = &storage.MockUserStorage{
		GetByIDFunc: userDirectory(f.client, f.artisan, f.supplier, f.courier, f.admin, f.stranger),
	}
	return f
}

func (f *orderFixture) service() *OrderServiceImpl {
	return NewOrderService(f.tx, f.users, f.clientOrders, f.artisanOrders, f.history, f.payments, f.events, nil)
}

// withClientOrder подкладывает заказ в мок. Каждое чтение возвращает копию, как настоящее хранилище.
func (f *orderFixture) withClientOrder(o *models.ClientOrder) {
	get := func(ctx context.Context, id uuid.UUID) (*models.ClientOrder, error) {
		if id != o.ID {
			return nil, storage.ErrClientOrderNotFound
		}
		cp := *o
		return &cp, nil
	}
	f.clientOrders.GetByIDFunc = get
	f.clientOrders.GetForUpdateTxFunc = func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ClientOrder, error) {
		return get(ctx, id)
	}
	f.clientOrders.UpdateStatusTxFunc = func(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error {
		o.Status = status
		return nil
	}
	f.clientOrders.UpdatePaymentStatusTxFunc = func(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.PaymentStatus) error {
		o.PaymentStatus = status
		return nil
	}
}

func (f *orderFixture) clientOrder(status models.OrderStatus, total string) *models.ClientOrder {
	o := &models.ClientOrder{
		ID:            uuid.New(),
		ClientID:      f.client.ID,
		ArtisanID:     f.artisan.ID,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
		TotalAmount:   decimal.RequireFromString(total),
	}
	f.withClientOrder(o)
	return o
}

func (f *orderFixture) artisanOrder(status models.OrderStatus) *models.ArtisanOrder {
	courier := f.courier.ID
	o := &models.ArtisanOrder{
		ID:            uuid.New(),
		ArtisanID:     f.artisan.ID,
		SupplierID:    f.supplier.ID,
		DeliveryManID: &courier,
		Status:        status,
	}
	get := func(ctx context.Context, id uuid.UUID) (*models.ArtisanOrder, error) {
		if id != o.ID {
			return nil, storage.ErrArtisanOrderNotFound
		}
		cp := *o
		return &cp, nil
	}
	f.artisanOrders.GetByIDFunc = get
	f.artisanOrders.GetForUpdateTxFunc = func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ArtisanOrder, error) {
		return get(ctx, id)
	}
	f.artisanOrders.UpdateStatusTxFunc = func(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error {
		o.Status = status
		return nil
	}
	return o
}

func TestOrderService_CreateClientOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("client creates order in PENDING with history row", func(t *testing.T) {
		f := newOrderFixture()
		var created *models.ClientOrder
		f.clientOrders.CreateTxFunc = func(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error {
			created = order
			return nil
		}

		order, err := f.service().CreateClientOrder(ctx, principal(f.client), models.CreateClientOrderInput{
			ClientID:    f.stranger.ID, // игнорируется для клиента
			ArtisanID:   f.artisan.ID,
			TotalAmount: decimal.RequireFromString("15000.00"),
			Description: "  oak table  ",
		})
		require.NoError(t, err)
		require.Same(t, created, order)

		assert.Equal(t, f.client.ID, order.ClientID)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
		assert.Equal(t, "oak table", order.Description)

		require.Len(t, f.history.Rows, 1)
		assert.Equal(t, models.OrderStatusPending, f.history.Rows[0].Status)
		assert.Equal(t, models.OrderTypeClient, f.history.Rows[0].OrderType)

		ev, ok := f.events.last()
		require.True(t, ok)
		assert.Equal(t, notify.EventOrderCreated, ev.Event)
		assert.Equal(t, []uuid.UUID{f.artisan.ID}, ev.Recipients)
	})

	tests := []struct {
		name    string
		actor   func(f *orderFixture) models.Principal
		input   func(f *orderFixture) models.CreateClientOrderInput
		wantErr error
	}{
		{
			name:  "ratee of wrong role",
			actor: func(f *orderFixture) models.Principal { return principal(f.client) },
			input: func(f *orderFixture) models.CreateClientOrderInput {
				return models.CreateClientOrderInput{ArtisanID: f.supplier.ID}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name:  "unknown artisan",
			actor: func(f *orderFixture) models.Principal { return principal(f.client) },
			input: func(f *orderFixture) models.CreateClientOrderInput {
				return models.CreateClientOrderInput{ArtisanID: uuid.New()}
			},
			wantErr: ErrUserNotFound,
		},
		{
			name:  "negative total",
			actor: func(f *orderFixture) models.Principal { return principal(f.client) },
			input: func(f *orderFixture) models.CreateClientOrderInput {
				return models.CreateClientOrderInput{ArtisanID: f.artisan.ID, TotalAmount: decimal.NewFromInt(-1)}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name:  "total below a cent",
			actor: func(f *orderFixture) models.Principal { return principal(f.client) },
			input: func(f *orderFixture) models.CreateClientOrderInput {
				return models.CreateClientOrderInput{ArtisanID: f.artisan.ID, TotalAmount: decimal.RequireFromString("100.005")}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name:  "total does not fit the column",
			actor: func(f *orderFixture) models.Principal { return principal(f.client) },
			input: func(f *orderFixture) models.CreateClientOrderInput {
				return models.CreateClientOrderInput{ArtisanID: f.artisan.ID, TotalAmount: decimal.New(1, 12)}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name:  "supplier cannot create client orders",
			actor: func(f *orderFixture) models.Principal { return principal(f.supplier) },
			input: func(f *orderFixture) models.CreateClientOrderInput {
				return models.CreateClientOrderInput{ArtisanID: f.artisan.ID}
			},
			wantErr: ErrUnauthorized,
		},
		{
			name:  "admin must name the client",
			actor: func(f *orderFixture) models.Principal { return principal(f.admin) },
			input: func(f *orderFixture) models.CreateClientOrderInput {
				return models.CreateClientOrderInput{ArtisanID: f.artisan.ID}
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			_, err := f.service().CreateClientOrder(ctx, tt.actor(f), tt.input(f))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.history.Rows)
			assert.Empty(t, f.events.events)
		})
	}
}

func TestOrderService_CreateArtisanOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("notifies supplier and delivery man", func(t *testing.T) {
		f := newOrderFixture()
		courier := f.courier.ID
		order, err := f.service().CreateArtisanOrder(ctx, principal(f.artisan), models.CreateArtisanOrderInput{
			SupplierID:    f.supplier.ID,
			DeliveryManID: &courier,
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(order.MaterialDetails))
		assert.Equal(t, f.artisan.ID, order.ArtisanID)

		ev, ok := f.events.last()
		require.True(t, ok)
		assert.ElementsMatch(t, []uuid.UUID{f.supplier.ID, f.courier.ID}, ev.Recipients)
	})

	t.Run("delivery man must have the delivery role", func(t *testing.T) {
		f := newOrderFixture()
		wrong := f.client.ID
		_, err := f.service().CreateArtisanOrder(ctx, principal(f.artisan), models.CreateArtisanOrderInput{
			SupplierID:    f.supplier.ID,
			DeliveryManID: &wrong,
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "delivery_man_id", verr.Field)
	})

	t.Run("material details must be JSON", func(t *testing.T) {
		f := newOrderFixture()
		_, err := f.service().CreateArtisanOrder(ctx, principal(f.artisan), models.CreateArtisanOrderInput{
			SupplierID:      f.supplier.ID,
			MaterialDetails: []byte(`{"wood":`),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestOrderService_ChangeStatus(t *testing.T) {
	ctx := context.Background()
	comment := "  started carving "

	tests := []struct {
		name       string
		orderType  models.OrderType
		current    models.OrderStatus
		next       models.OrderStatus
		actor      func(f *orderFixture) models.Principal
		wantErr    error
		wantEvent  notify.Event
		wantNotify func(f *orderFixture) []uuid.UUID
	}{
		{
			name:      "artisan accepts client order",
			orderType: models.OrderTypeClient,
			current:   models.OrderStatusPending,
			next:      models.OrderStatusAccepted,
			actor:     func(f *orderFixture) models.Principal { return principal(f.artisan) },
			wantEvent: notify.EventOrderStatusChanged,
			wantNotify: func(f *orderFixture) []uuid.UUID {
				return []uuid.UUID{f.client.ID}
			},
		},
		{
			name:      "client cancels",
			orderType: models.OrderTypeClient,
			current:   models.OrderStatusAccepted,
			next:      models.OrderStatusCancelled,
			actor:     func(f *orderFixture) models.Principal { return principal(f.client) },
			wantEvent: notify.EventOrderCancelled,
			wantNotify: func(f *orderFixture) []uuid.UUID {
				return []uuid.UUID{f.artisan.ID}
			},
		},
		{
			name:      "admin delivers artisan order",
			orderType: models.OrderTypeArtisan,
			current:   models.OrderStatusShipped,
			next:      models.OrderStatusDelivered,
			actor:     func(f *orderFixture) models.Principal { return principal(f.admin) },
			wantEvent: notify.EventOrderStatusChanged,
			wantNotify: func(f *orderFixture) []uuid.UUID {
				return []uuid.UUID{f.artisan.ID, f.supplier.ID, f.courier.ID}
			},
		},
		{
			name:      "status of the other order kind",
			orderType: models.OrderTypeClient,
			current:   models.OrderStatusPending,
			next:      models.OrderStatusShipped,
			actor:     func(f *orderFixture) models.Principal { return principal(f.artisan) },
			wantErr:   ErrInvalidStatus,
		},
		{
			name:      "unknown status",
			orderType: models.OrderTypeArtisan,
			current:   models.OrderStatusPending,
			next:      models.OrderStatus("LOST"),
			actor:     func(f *orderFixture) models.Principal { return principal(f.artisan) },
			wantErr:   ErrInvalidStatus,
		},
		{
			name:      "completed is terminal",
			orderType: models.OrderTypeClient,
			current:   models.OrderStatusCompleted,
			next:      models.OrderStatusCancelled,
			actor:     func(f *orderFixture) models.Principal { return principal(f.admin) },
			wantErr:   ErrOrderAlreadyFinalized,
		},
		{
			name:      "cancelled is terminal",
			orderType: models.OrderTypeArtisan,
			current:   models.OrderStatusCancelled,
			next:      models.OrderStatusShipped,
			actor:     func(f *orderFixture) models.Principal { return principal(f.supplier) },
			wantErr:   ErrOrderAlreadyFinalized,
		},
		{
			name:      "non participant",
			orderType: models.OrderTypeClient,
			current:   models.OrderStatusPending,
			next:      models.OrderStatusAccepted,
			actor:     func(f *orderFixture) models.Principal { return principal(f.stranger) },
			wantErr:   ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			var id uuid.UUID
			if tt.orderType == models.OrderTypeClient {
				id = f.clientOrder(tt.current, "100.00").ID
			} else {
				id = f.artisanOrder(tt.current).ID
			}

			order, err := f.service().ChangeStatus(ctx, tt.actor(f), tt.orderType, id, tt.next, &comment)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, order)
				assert.Empty(t, f.history.Rows)
				assert.Empty(t, f.events.events)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.next, order.CurrentStatus())

			require.Len(t, f.history.Rows, 1)
			assert.Equal(t, tt.next, f.history.Rows[0].Status)
			require.NotNil(t, f.history.Rows[0].Comment)
			assert.Equal(t, "started carving", *f.history.Rows[0].Comment)

			ev, ok := f.events.last()
			require.True(t, ok)
			assert.Equal(t, tt.wantEvent, ev.Event)
			assert.ElementsMatch(t, tt.wantNotify(f), ev.Recipients)
		})
	}
}

func TestOrderService_ChangeStatus_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("history failure surfaces as store failure without event", func(t *testing.T) {
		f := newOrderFixture()
		o := f.clientOrder(models.OrderStatusPending, "10")
		f.history.CreateTxErr = errors.New("connection reset")

		_, err := f.service().ChangeStatus(ctx, principal(f.artisan), models.OrderTypeClient, o.ID, models.OrderStatusAccepted, nil)
		assert.ErrorIs(t, err, ErrStoreFailure)
		assert.Empty(t, f.events.events)
	})

	t.Run("serialization conflict on commit", func(t *testing.T) {
		f := newOrderFixture()
		o := f.clientOrder(models.OrderStatusPending, "10")
		f.tx.Err = fmt.Errorf("commit tx: %w", storage.ErrConcurrentModification)

		_, err := f.service().ChangeStatus(ctx, principal(f.artisan), models.OrderTypeClient, o.ID, models.OrderStatusAccepted, nil)
		assert.ErrorIs(t, err, ErrConcurrentModification)
		assert.Empty(t, f.events.events)
	})

	t.Run("missing order", func(t *testing.T) {
		f := newOrderFixture()
		f.clientOrder(models.OrderStatusPending, "10")

		_, err := f.service().ChangeStatus(ctx, principal(f.admin), models.OrderTypeClient, uuid.New(), models.OrderStatusAccepted, nil)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("publish failure does not fail the transition", func(t *testing.T) {
		f := newOrderFixture()
		o := f.clientOrder(models.OrderStatusPending, "10")
		f.events.err = errors.New("notifications table is gone")

		_, err := f.service().ChangeStatus(ctx, principal(f.artisan), models.OrderTypeClient, o.ID, models.OrderStatusAccepted, nil)
		assert.NoError(t, err)
		assert.Equal(t, models.OrderStatusAccepted, o.Status)
	})
}

func TestOrderService_UpdateClientOrder_RederivesPaymentStatus(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.clientOrder(models.OrderStatusAccepted, "15000.00")
	o.PaymentStatus = models.PaymentStatusPartial
	f.payments.Payments = []*models.Payment{{OrderID: o.ID, Amount: decimal.RequireFromString("5000.00")}}

	lower := decimal.RequireFromString("5000.00")
	updated, err := f.service().UpdateClientOrder(ctx, principal(f.client), o.ID, models.UpdateClientOrderInput{TotalAmount: &lower})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, updated.PaymentStatus)
	assert.Equal(t, models.PaymentStatusCompleted, o.PaymentStatus)

	ev, ok := f.events.last()
	require.True(t, ok)
	assert.Equal(t, notify.EventOrderUpdated, ev.Event)
	assert.Equal(t, []uuid.UUID{f.artisan.ID}, ev.Recipients)
}

func TestOrderService_UpdateClientOrder_RejectsSubCentTotal(t *testing.T) {
	f := newOrderFixture()
	o := f.clientOrder(models.OrderStatusAccepted, "100.00")
	f.clientOrders.UpdateFieldsTxFunc = func(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error {
		t.Fatal("update must not reach storage")
		return nil
	}

	amount := decimal.RequireFromString("100.005")
	_, err := f.service().UpdateClientOrder(context.Background(), principal(f.client), o.ID, models.UpdateClientOrderInput{TotalAmount: &amount})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "100.00", o.TotalAmount.StringFixed(2))
	assert.Empty(t, f.events.events)
}

func TestOrderService_UpdateArtisanOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("updates the locked row", func(t *testing.T) {
		f := newOrderFixture()
		o := f.artisanOrder(models.OrderStatusPending)
		f.artisanOrders.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.ArtisanOrder, error) {
			t.Fatal("content update must read the order under lock")
			return nil, nil
		}
		var saved *models.ArtisanOrder
		f.artisanOrders.UpdateFieldsTxFunc = func(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error {
			saved = order
			return nil
		}

		address := "  12 Mill Road  "
		total := decimal.RequireFromString("250.40")
		updated, err := f.service().UpdateArtisanOrder(ctx, principal(f.supplier), o.ID, models.UpdateArtisanOrderInput{
			MaterialDetails: []byte(`{"oak":3}`),
			DeliveryAddress: &address,
			TotalAmount:     &total,
		})
		require.NoError(t, err)
		require.Same(t, saved, updated)
		assert.Equal(t, "12 Mill Road", updated.DeliveryAddress)
		assert.JSONEq(t, `{"oak":3}`, string(updated.MaterialDetails))
		assert.Equal(t, "250.40", updated.TotalAmount.StringFixed(2))

		ev, ok := f.events.last()
		require.True(t, ok)
		assert.Equal(t, notify.EventOrderUpdated, ev.Event)
		assert.ElementsMatch(t, []uuid.UUID{f.artisan.ID, f.courier.ID}, ev.Recipients)
	})

	t.Run("stranger is rejected before writing", func(t *testing.T) {
		f := newOrderFixture()
		o := f.artisanOrder(models.OrderStatusPending)
		f.artisanOrders.UpdateFieldsTxFunc = func(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error {
			t.Fatal("update must not reach storage")
			return nil
		}

		address := "elsewhere"
		_, err := f.service().UpdateArtisanOrder(ctx, principal(f.stranger), o.ID, models.UpdateArtisanOrderInput{DeliveryAddress: &address})
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, f.events.events)
	})

	t.Run("invalid details", func(t *testing.T) {
		f := newOrderFixture()
		o := f.artisanOrder(models.OrderStatusPending)
		_, err := f.service().UpdateArtisanOrder(ctx, principal(f.artisan), o.ID, models.UpdateArtisanOrderInput{
			MaterialDetails: []byte(`{oak`),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestOrderService_DeleteOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("only admin", func(t *testing.T) {
		f := newOrderFixture()
		o := f.clientOrder(models.OrderStatusPending, "1")
		err := f.service().DeleteOrder(ctx, principal(f.client), models.OrderTypeClient, o.ID)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("admin deletes without event", func(t *testing.T) {
		f := newOrderFixture()
		var deleted uuid.UUID
		f.artisanOrders.DeleteFunc = func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		}
		id := uuid.New()
		require.NoError(t, f.service().DeleteOrder(ctx, principal(f.admin), models.OrderTypeArtisan, id))
		assert.Equal(t, id, deleted)
		assert.Empty(t, f.events.events)
	})

	t.Run("missing order", func(t *testing.T) {
		f := newOrderFixture()
		f.clientOrders.DeleteFunc = func(ctx context.Context, id uuid.UUID) error {
			return storage.ErrClientOrderNotFound
		}
		err := f.service().DeleteOrder(ctx, principal(f.admin), models.OrderTypeClient, uuid.New())
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestOrderService_ListClientOrders_ScopesToActor(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	var got models.OrderFilter
	f.clientOrders.ListFunc = func(ctx context.Context, filter models.OrderFilter, page models.Page) ([]*models.ClientOrder, int, error) {
		got = filter
		return nil, 0, nil
	}

	_, _, err := f.service().ListClientOrders(ctx, principal(f.client), models.OrderFilter{ParticipantID: f.artisan.ID, Role: models.RoleArtisan}, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, f.client.ID, got.ParticipantID)
	assert.Empty(t, got.Role)

	_, _, err = f.service().ListClientOrders(ctx, principal(f.admin), models.OrderFilter{ParticipantID: f.artisan.ID}, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, f.artisan.ID, got.ParticipantID)

	_, _, err = f.service().ListClientOrders(ctx, principal(f.admin), models.OrderFilter{Status: models.OrderStatusDelivered}, models.Page{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderService_GetStatusTimeline(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.artisanOrder(models.OrderStatusCancelled)

	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	note := "supplier out of stock"
	f.history.Rows = []*models.StatusHistory{
		{OrderID: o.ID, OrderType: models.OrderTypeArtisan, Status: models.OrderStatusPending, CreatedAt: t0},
		{OrderID: o.ID, OrderType: models.OrderTypeArtisan, Status: models.OrderStatusCancelled, Comment: &note, CreatedAt: t0.Add(time.Hour)},
	}

	timeline, err := f.service().GetStatusTimeline(ctx, principal(f.supplier), models.OrderTypeArtisan, o.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 4)

	assert.Equal(t, models.OrderStatusPending, timeline[0].Status)
	assert.True(t, timeline[0].Completed)
	assert.Equal(t, models.OrderStatusShipped, timeline[1].Status)
	assert.False(t, timeline[1].Completed)
	assert.Nil(t, timeline[1].Timestamp)
	assert.Equal(t, models.OrderStatusCancelled, timeline[3].Status)
	require.NotNil(t, timeline[3].Comment)
	assert.Equal(t, note, *timeline[3].Comment)

	_, err = f.service().GetStatusTimeline(ctx, principal(f.stranger), models.OrderTypeArtisan, o.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDerivePaymentStatus(t *testing.T) {
	d := decimal.RequireFromString
	tests := []struct {
		total, paid string
		want        models.PaymentStatus
	}{
		{"15000.00", "0", models.PaymentStatusPending},
		{"15000.00", "5000.00", models.PaymentStatusPartial},
		{"15000.00", "15000.00", models.PaymentStatusCompleted},
		{"15000.00", "15000.01", models.PaymentStatusCompleted},
		{"0", "0", models.PaymentStatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.total+"/"+tt.paid, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePaymentStatus(d(tt.total), d(tt.paid)))
			assert.Equal(t, tt.want, DerivePaymentStatus(d(tt.total), d(tt.paid)), "idempotent")
		})
	}
}
