package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	apiURL  string
)

var rootCmd = &cobra.Command{
	Use:   "promptivc",
	Short: "promptivc submits text-insertion jobs to a running promptivd",
	Long:  `A command-line submitter for promptivd: builds an insert_text job from flags or stdin and posts it to the relay daemon.`,
}

// Execute runs the root command, exiting with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.promptivc.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", "http://127.0.0.1:8787", "promptivd API URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".promptivc")
	}

	viper.SetEnvPrefix("PROMPTIVC")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
