package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bgdnvk/spendwise/internal/awsauth"
	"github.com/bgdnvk/spendwise/internal/config"
	"github.com/bgdnvk/spendwise/internal/logger"
	"github.com/bgdnvk/spendwise/internal/tools"
)

var (
	cfgFile string
	envFile string
)

// Version is stamped at build time.
var Version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spendwise",
	Short: "AWS cost and Bedrock usage analysis",
	Long: `Spendwise aggregates AWS Cost Explorer billing data and Bedrock model
invocation logs into reports, locally or across accounts through a delegated
IAM role. Run it as an MCP server so an agent can ask about spend, or use the
usage and cost commands directly.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.spendwise.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("profile", "", "AWS profile to use (default: from AWS_PROFILE env)")
	rootCmd.PersistentFlags().String("role-name", "", "role assumed in other accounts (or set CROSS_ACCOUNT_ROLE_NAME)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("aws_profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("cross_account_role_name", rootCmd.PersistentFlags().Lookup("role-name"))

	config.SetDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".spendwise")
	}

	viper.AutomaticEnv()

	readErr := viper.ReadInConfig()
	logger.Setup(viper.GetBool("debug"))
	if readErr == nil {
		logger.Logger.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// loadConfig builds the effective configuration from flags, env and file.
func loadConfig() (config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newService wires the resolver and tool service for one command run.
func newService() (*tools.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	resolver := awsauth.NewResolver(cfg.CrossAccountRoleName, awsauth.DefaultLoader(cfg.Profile))
	return tools.NewService(cfg, resolver), nil
}
