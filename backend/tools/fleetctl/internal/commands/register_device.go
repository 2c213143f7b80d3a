package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	libredis "fleetconsole/backend/libs/redis"
)

func newRegisterDeviceCommand(deps Deps) *cobra.Command {
	var (
		opts     libredis.Options
		deviceID string
		apiKey   string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "register-device",
		Short: "Bind an ingestion API key to a device id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deviceID = strings.TrimSpace(deviceID)
			apiKey = strings.TrimSpace(apiKey)
			if deviceID == "" || apiKey == "" {
				return errors.New("register-device: --device and --key are required")
			}

			client, closeClient, err := deps.OpenRedis(opts)
			if err != nil {
				return fmt.Errorf("register-device: connect: %w", err)
			}
			defer closeClient()

			if err := client.Set(cmd.Context(), libredis.DeviceAuthKey(apiKey), deviceID, ttl).Err(); err != nil {
				return fmt.Errorf("register-device: store key: %w", err)
			}
			deps.Logger.Info("device registered", zap.String("device_id", deviceID))
			fmt.Fprintf(cmd.OutOrStdout(), "registered device %s\n", deviceID)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "redis", "localhost:6379", "Redis address")
	cmd.Flags().StringVar(&opts.Password, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&opts.DB, "redis-db", 0, "Redis database")
	cmd.Flags().StringVar(&deviceID, "device", "", "device id the key authenticates")
	cmd.Flags().StringVar(&apiKey, "key", "", "API key sent by the device in X-API-Key")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "key lifetime, 0 keeps it forever")
	return cmd
}
