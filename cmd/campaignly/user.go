package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/campaignly/campaignly/internal/auth"
	"github.com/campaignly/campaignly/internal/config"
	"github.com/campaignly/campaignly/internal/db"
	"github.com/campaignly/campaignly/internal/models"
	"github.com/campaignly/campaignly/internal/repository"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  runUserList,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete [email]",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password [email]",
	Short: "Reset user password",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserResetPassword,
}

var (
	userEmail    string
	userPassword string
	userName     string
)

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "User email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "User password (will prompt if not provided)")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "User name")
	userCreateCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userResetPasswordCmd)

	userCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/campaignly/config.yaml", "Path to configuration file")
}

func openUsers() (*db.DB, *repository.UserRepository, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return database, repository.NewUserRepository(database.DB), nil
}

func promptPassword() (string, error) {
	fmt.Print("Enter password: ")
	pwBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	pwBytes2, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(pwBytes2) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	if !auth.ValidEmail(userEmail) {
		return fmt.Errorf("invalid email address: %s", userEmail)
	}

	database, users, err := openUsers()
	if err != nil {
		return err
	}
	defer database.Close()

	password := userPassword
	if password == "" {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := users.Create(&models.User{
		Email:        userEmail,
		PasswordHash: hash,
		Name:         userName,
	}); err != nil {
		return err
	}

	fmt.Printf("User %s created\n", userEmail)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	database, users, err := openUsers()
	if err != nil {
		return err
	}
	defer database.Close()

	list, err := users.List()
	if err != nil {
		return err
	}

	fmt.Printf("%-36s  %-30s  %-20s  %s\n", "ID", "EMAIL", "NAME", "LAST LOGIN")
	for _, u := range list {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-36s  %-30s  %-20s  %s\n", u.ID, u.Email, u.Name, lastLogin)
	}
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	database, users, err := openUsers()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := users.Delete(args[0]); err != nil {
		return err
	}

	fmt.Printf("User %s deleted\n", args[0])
	return nil
}

func runUserResetPassword(cmd *cobra.Command, args []string) error {
	database, users, err := openUsers()
	if err != nil {
		return err
	}
	defer database.Close()

	password, err := promptPassword()
	if err != nil {
		return err
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := users.UpdatePassword(args[0], hash); err != nil {
		return err
	}

	fmt.Printf("Password for %s updated successfully\n", args[0])
	return nil
}
