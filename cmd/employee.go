package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/vidquiz/internal/store"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage employees",
}

var employeeAddCmd = &cobra.Command{
	Use:   "add <employee-number> <full name>",
	Short: "Register an employee",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		e := &store.Employee{
			EmployeeNumber: strings.TrimSpace(args[0]),
			FullName:       strings.Join(args[1:], " "),
		}
		if err := env.store.EmployeeRepo().Create(cmd.Context(), e); err != nil {
			return err
		}
		fmt.Printf("Added %s (%s) as %s.\n", e.FullName, e.EmployeeNumber, e.ID)
		return nil
	},
}

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		employees, err := env.store.EmployeeRepo().List(cmd.Context())
		if err != nil {
			return err
		}
		if len(employees) == 0 {
			fmt.Println("No employees found.")
			return nil
		}

		fmt.Printf("%-36s  %-12s  %s\n", "ID", "Number", "Name")
		fmt.Println(strings.Repeat("─", 72))
		for _, e := range employees {
			fmt.Printf("%-36s  %-12s  %s\n", e.ID, e.EmployeeNumber, e.FullName)
		}
		return nil
	},
}

func init() {
	employeeCmd.AddCommand(employeeAddCmd)
	employeeCmd.AddCommand(employeeListCmd)
}
