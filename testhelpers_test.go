//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/StayNest-Travel/service-billing/internal/application"
	"github.com/StayNest-Travel/service-billing/internal/config"
	billingEvents "github.com/StayNest-Travel/service-billing/internal/events"
	"github.com/StayNest-Travel/service-billing/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// billingStack holds wired-up billing service components.
type billingStack struct {
	Pricing         *application.PricingService
	Commissions     *application.CommissionService
	Consumer        *billingEvents.BookingEventConsumer
	Clock           *clockwork.FakeClock
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_billing",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_billing sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.HotelModel{},
		&repository.RoomTypeModel{},
		&repository.BookingModel{},
		&repository.OfferModel{},
		&repository.CommissionModel{},
	))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, billingEvents.TopicBookingEvents, billingEvents.TopicBillingEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBillingStack wires up the full billing service stack with a fake clock.
func setupBillingStack(t *testing.T, db *gorm.DB, brokers []string, now time.Time) *billingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	clock := clockwork.NewFakeClockAt(now)

	offerRepo := repository.NewGormOfferRepository(db)
	commissionRepo := repository.NewGormCommissionRepository(db)
	hotelRepo := repository.NewGormHotelRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	producer := billingEvents.NewProducer(brokers, logger)

	billingCfg := config.BillingConfig{
		CommissionPercent: 10,
		PenaltyPercent:    5,
		TaxPercent:        12,
		DueDays:           5,
		BlockGraceDays:    5,
	}

	pricing := application.NewPricingService(offerRepo, hotelRepo, clock, billingCfg.TaxPercent, logger)
	commissions := application.NewCommissionService(commissionRepo, hotelRepo, bookingRepo, producer, clock, billingCfg, logger)

	groupID := fmt.Sprintf("test-billing-%s", uuid.New().String()[:8])
	consumer := billingEvents.NewBookingEventConsumer(brokers, groupID, pricing, logger)

	return &billingStack{
		Pricing:         pricing,
		Commissions:     commissions,
		Consumer:        consumer,
		Clock:           clock,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

func seedHotelWithRoom(t *testing.T, db *gorm.DB, pricePerNight int64) (uuid.UUID, uuid.UUID) {
	t.Helper()
	hotelID := uuid.New()
	roomTypeID := uuid.New()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&repository.HotelModel{
		ID:         hotelID,
		OwnerID:    uuid.New(),
		Name:       "Integration Hotel",
		City:       "Porto",
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)
	require.NoError(t, db.Create(&repository.RoomTypeModel{
		ID:            roomTypeID,
		HotelID:       hotelID,
		Name:          "Deluxe",
		Category:      "deluxe",
		MaxGuests:     2,
		PricePerNight: decimal.NewFromInt(pricePerNight),
	}).Error)
	return hotelID, roomTypeID
}

func seedLiveOffer(t *testing.T, db *gorm.DB, hotelID uuid.UUID, now time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Create(&repository.OfferModel{
		ID:            id,
		HotelID:       hotelID,
		Name:          "Integration Offer",
		OfferType:     "SEASONAL",
		DiscountType:  "PERCENT",
		DiscountValue: decimal.NewFromInt(10),
		Applicability: "ALL",
		Status:        "LIVE",
		ValidFrom:     now.AddDate(0, 0, -10),
		ValidTo:       now.AddDate(0, 0, 10),
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error)
	return id
}

func seedConfirmedBooking(t *testing.T, db *gorm.DB, hotelID, roomTypeID uuid.UUID, checkin time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&repository.BookingModel{
		ID:           uuid.New(),
		HotelID:      hotelID,
		RoomTypeID:   roomTypeID,
		UserID:       uuid.New(),
		CheckinDate:  checkin,
		CheckoutDate: checkin.AddDate(0, 0, 2),
		Status:       "confirmed",
		CreatedAt:    time.Now().UTC(),
	}).Error)
}

// publishTestEvent publishes an enveloped event to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := billingEvents.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	env, err := billingEvents.NewEnvelope(source, eventType, data)
	require.NoError(t, err, "failed to create envelope")

	err = producer.Publish(context.Background(), topic, env)
	require.NoError(t, err, "failed to publish event")
}

// waitForRedemptionCount polls the offers table until the counter matches.
func waitForRedemptionCount(t *testing.T, db *gorm.DB, offerID uuid.UUID, expected int, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		var model repository.OfferModel
		if err := db.Where("id = ?", offerID).First(&model).Error; err != nil {
			return false
		}
		return model.RedemptionCount == expected
	}, timeout, 200*time.Millisecond, "offer did not reach redemption count %d", expected)
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) billingEvents.Envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		env, err := billingEvents.ParseEnvelope(msg.Value)
		if err != nil {
			continue
		}
		if env.Type == expectedType {
			return env
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
