package rabbit

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/viper"

	logging "intervue/pkg/logger/pkg"
)

// Rabbit publishes lifecycle events to the configured queue. This process
// only produces; nothing here consumes.
type Rabbit interface {
	Publish(ctx context.Context, body []byte) error
}

type Config struct {
	Address      string
	Port         int32
	Username     string
	Password     string
	PublishQueue string
	ExpireTime   int32
}

type rabbit struct {
	connectionUrl string
	publishQueue  string
	expireTime    int32
}

func ReadConfig() *Config {
	if viper.GetString("rabbitmq.address") == "" {
		return nil
	}
	return &Config{
		Address:      viper.GetString("rabbitmq.address"),
		Port:         viper.GetInt32("rabbitmq.port"),
		Username:     viper.GetString("rabbitmq.username"),
		Password:     viper.GetString("rabbitmq.password"),
		PublishQueue: viper.GetString("rabbitmq.publish_queue"),
		ExpireTime:   viper.GetInt32("rabbitmq.expire_time"),
	}
}

func New(cfg *Config) Rabbit {
	if cfg == nil {
		return &Dummy{}
	}

	connectionUrl := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.Username, cfg.Password, cfg.Address, cfg.Port)
	return &rabbit{
		connectionUrl: connectionUrl,
		publishQueue:  cfg.PublishQueue,
		expireTime:    cfg.ExpireTime,
	}
}

func (r *rabbit) Publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(r.connectionUrl)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(r.publishQueue, true, false, false, false, nil)
	if err != nil {
		return err
	}

	err = ch.Publish("", q.Name, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Expiration:  fmt.Sprintf("%d", r.expireTime),
	})
	if err != nil {
		return err
	}

	logging.Logger(ctx).Info(fmt.Sprintf("Sent: %s", string(body)))
	return nil
}
