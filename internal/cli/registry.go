package cli

import (
	"github.com/spf13/cobra"
)

// NewInstanceCmd создаёт группу команд для записей инстансов.
func NewInstanceCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Inspect app instance records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show TENANT APP_INSTANCE_ID",
		Short: "Show an app instance record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := clientFn().GetInstance(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := outputFn()
			if out.jsonMode {
				out.JSON(inst)
				return nil
			}
			out.Fields([][2]string{
				{"Tenant", inst.Tenant},
				{"Instance", inst.AppInstanceID},
				{"App", inst.AppName + " (" + inst.AppID + ")"},
				{"Package", inst.AppPackageID},
				{"MEC host", inst.MecHost},
				{"App LCM host", inst.ApplcmHost},
				{"Status", inst.OperationalStatus},
				{"Info", inst.OperationInfo},
				{"Updated", inst.UpdatedAt},
			})
			return nil
		},
	})

	return cmd
}

// NewRuleTaskCmd создаёт группу команд для задач правил.
func NewRuleTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ruletask",
		Short: "Inspect app rule task records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show TENANT APP_RULE_TASK_ID",
		Short: "Show an app rule task record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := clientFn().GetRuleTask(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := outputFn()
			out.Print(
				[]string{"TENANT", "RULE_TASK", "INSTANCE", "RESULT", "UPDATED"},
				[][]string{{task.Tenant, task.AppRuleTaskID, task.AppInstanceID, task.ConfigResult, task.UpdatedAt}},
				task,
			)
			if !out.jsonMode && task.Detailed != "" {
				out.Success("detailed: " + task.Detailed)
			}
			return nil
		},
	})

	return cmd
}

// NewTaskTypesCmd создаёт команду списка типов шагов.
func NewTaskTypesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "task-types",
		Short: "List registered task types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := clientFn().TaskTypes(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(types))
			for i, t := range types {
				rows[i] = []string{t}
			}
			outputFn().Print([]string{"TYPE"}, rows, types)
			return nil
		},
	}
}
