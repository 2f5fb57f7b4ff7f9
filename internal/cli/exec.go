package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// ErrTaskFailed — шаг выполнился, но результат не 2xx.
var ErrTaskFailed = errors.New("task failed")

// NewExecCmd создаёт команду выполнения шага.
//
//	appo exec appo.db --set operationType=get --set tenant_id=t1 --set app_instance_id=i1
func NewExecCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		contextFile string
		runID       string
		async       bool
		sets        []string
		setInts     []string
		setJSON     []string
	)

	cmd := &cobra.Command{
		Use:   "exec TASK_TYPE",
		Short: "Execute a task against a run context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			ctxValues, err := buildContext(contextFile, cmd.InOrStdin(), sets, setInts, setJSON)
			if err != nil {
				return err
			}
			req := ExecuteRequest{RunID: runID, Context: ctxValues}

			if async {
				resp, err := client.Enqueue(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				out.Print(
					[]string{"RUN_ID", "TASK_TYPE", "MESSAGE_ID"},
					[][]string{{resp.RunID, resp.TaskType, resp.MessageID}},
					resp,
				)
				return nil
			}

			resp, err := client.Execute(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(resp)
			} else {
				out.Fields([][2]string{
					{"Run", resp.RunID},
					{"Task", resp.TaskType},
					{"Code", resp.Outcome.Code},
					{"Message", resp.Outcome.Message},
					{"Fault", resp.Error},
				})
				fmt.Fprintln(out.w)
				out.Table([]string{"KEY", "VALUE"}, contextRows(resp.Context))
			}

			code, convErr := strconv.Atoi(resp.Outcome.Code)
			if convErr != nil || code < 200 || code > 299 {
				return fmt.Errorf("%w: %s %s", ErrTaskFailed, resp.Outcome.Code, resp.Outcome.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contextFile, "context", "c", "", "JSON file with the initial run context (- for stdin)")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run ID (UUID, generated when empty)")
	cmd.Flags().BoolVar(&async, "async", false, "Enqueue the task instead of executing it")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a string value: key=value")
	cmd.Flags().StringArrayVar(&setInts, "set-int", nil, "Set an integer value: key=123")
	cmd.Flags().StringArrayVar(&setJSON, "set-json", nil, "Set a JSON value: key={...}")

	return cmd
}

// buildContext собирает контекст из файла и флагов. Флаги перекрывают файл.
func buildContext(file string, stdin io.Reader, sets, setInts, setJSON []string) (map[string]any, error) {
	values := make(map[string]any)

	if file != "" {
		var data []byte
		var err error
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf("read context: %w", err)
		}
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse context: %w", err)
		}
	}

	for _, kv := range sets {
		k, v, err := splitPair(kv)
		if err != nil {
			return nil, err
		}
		values[k] = v
	}

	for _, kv := range setInts {
		k, v, err := splitPair(kv)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("--set-int %s: %w", k, err)
		}
		values[k] = n
	}

	for _, kv := range setJSON {
		k, v, err := splitPair(kv)
		if err != nil {
			return nil, err
		}
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil, fmt.Errorf("--set-json %s: %w", k, err)
		}
		values[k] = parsed
	}

	return values, nil
}

func splitPair(kv string) (string, string, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return "", "", fmt.Errorf("invalid value %q, expected key=value", kv)
	}
	return k, v, nil
}
