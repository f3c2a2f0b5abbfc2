package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/baetyl/baetyl-go/v2/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baetyl/baetyl-bacnet-reader/bacip"
	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
	"github.com/baetyl/baetyl-bacnet-reader/driver"
	"github.com/baetyl/baetyl-bacnet-reader/readprop"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bacnet-read",
	Short: "Read properties of BACnet/IP objects",
	Long: `bacnet-read sends one ReadProperty request per object and prints
the decoded values.

Object types and properties can be given by name or number:
  analogInput, analog-input, ai, 0
  device, dev, 8
  presentValue, present-value, pv, 85
  objectList, object-list, 76

Examples:
  # Read the present value of analog input 42
  bacnet-read --address 10.0.0.5:47808 --object analogInput:42

  # Read the length of the object list of device 1, then its first item
  bacnet-read --address 10.0.0.5 --object device:1 --property objectList --index 0
  bacnet-read --address 10.0.0.5 --object device:1 --property objectList --index 1

  # Read several objects, two at a time
  bacnet-read --address 10.0.0.5 --object ai:1 --object ai:2 --object av:3 --concurrency 2`,
	SilenceUsage: true,
	RunE:         runRead,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bacnet-read.yaml)")
	flags.StringP("address", "a", "", "Device address, ip[/prefix][:port]")
	flags.StringSliceP("object", "O", nil, "Object type and instance (e.g. analogInput:1 or ai:1), repeatable")
	flags.StringP("property", "P", "presentValue", "Property identifier")
	flags.Int("index", -1, "Array index (-1 for no index)")
	flags.DurationP("timeout", "t", readprop.DefaultTimeout, "Request timeout")
	flags.String("local", "0.0.0.0:0", "Local address to bind to")
	flags.Int("concurrency", 1, "Number of reads in flight")
	flags.StringP("output", "o", "json", "Output format (json, raw)")
	flags.BoolP("verbose", "v", false, "Enable debug logs")

	for _, name := range []string{"address", "object", "property", "index", "timeout", "local", "concurrency", "output", "verbose"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".bacnet-read")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BACNET")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func newLogger() (*log.Logger, error) {
	level := "warn"
	if viper.GetBool("verbose") {
		level = "debug"
	}
	return log.Init(log.Config{Level: level, Encoding: "console"})
}

// commands turns the object flags into one command each
func commands() ([]driver.Command, error) {
	address := viper.GetString("address")
	if address == "" {
		return nil, fmt.Errorf("device address is required (--address or BACNET_ADDRESS)")
	}
	objects := viper.GetStringSlice("object")
	if len(objects) == 0 {
		return nil, fmt.Errorf("at least one object is required (--object)")
	}
	var index *uint32
	if i := viper.GetInt("index"); i >= 0 {
		idx := uint32(i)
		index = &idx
	}
	cmds := make([]driver.Command, 0, len(objects))
	for _, object := range objects {
		objectType, instance, err := splitObject(object)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, driver.Command{
			PropertyAddress: readprop.PropertyAddress{
				Address:    address,
				ObjectType: objectType,
				Instance:   instance,
				Property:   viper.GetString("property"),
				ArrayIndex: index,
			},
			Timeout: viper.GetDuration("timeout"),
		})
	}
	return cmds, nil
}

func splitObject(s string) (string, uint32, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return "", 0, fmt.Errorf("invalid object %q: expected type:instance", s)
	}
	instance, err := strconv.ParseUint(strings.TrimSpace(s[i+1:]), 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid object %q: %w", s, err)
	}
	return strings.TrimSpace(s[:i]), uint32(instance), nil
}

func runRead(cmd *cobra.Command, args []string) error {
	cmds, err := commands()
	if err != nil {
		return err
	}
	format := viper.GetString("output")
	if format != formatJSON && format != formatRaw {
		return fmt.Errorf("unknown output format %q", format)
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	client := bacip.NewClient(bacip.Config{Address: viper.GetString("local")}, logger)
	if err := client.Start(); err != nil {
		return err
	}
	defer client.Stop()

	reader := readprop.NewReader(client, bacnet.DefaultSchema(),
		readprop.WithTimeout(viper.GetDuration("timeout")), readprop.WithLogger(logger))
	block := driver.NewBlock(reader, viper.GetInt("concurrency"), logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(len(cmds)+1)*viper.GetDuration("timeout"))
	defer cancel()
	records := block.Process(ctx, cmds)
	if err := printRecords(cmd.OutOrStdout(), format, records); err != nil {
		return err
	}
	if failed := countFailed(records); failed > 0 {
		return fmt.Errorf("%d of %d reads failed", failed, len(records))
	}
	return nil
}
