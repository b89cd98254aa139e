package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alfa07/clipcast/internal/ipc"
	"github.com/alfa07/clipcast/internal/message"
	"github.com/alfa07/clipcast/internal/wire"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the running clipcast client",
		Long: `Queries the clipcast client daemon on this machine over its IPC Unix
socket and prints the connection state.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	if !ipc.IsRunning() {
		return fmt.Errorf("no clipcast client running (socket %s)", ipc.SocketPath())
	}

	conn, err := ipc.Dial()
	if err != nil {
		return fmt.Errorf("dial %s: %w", ipc.SocketPath(), err)
	}
	defer conn.Close()

	wc := wire.New(conn)
	if err := wc.WriteMsg(&message.Message{Type: message.TypeStatus}); err != nil {
		return fmt.Errorf("status request: %w", err)
	}
	resp, err := wc.ReadMsg()
	if err != nil {
		return fmt.Errorf("status read: %w", err)
	}
	if resp.Type != message.TypeStatusResponse || resp.Status == nil {
		return fmt.Errorf("unexpected response %q", resp.Type)
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(resp.Status, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	printStatus(resp.Status)
	return nil
}

func printStatus(st *message.StatusInfo) {
	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "State:\t%s\n", st.State)
	fmt.Fprintf(w, "Target:\t%s\n", st.Target)
	if !st.StartedAt.IsZero() {
		fmt.Fprintf(w, "Running since:\t%s (%s)\n", st.StartedAt.Format(time.RFC3339), fmtAge(st.StartedAt))
	}
	if !st.ConnectedAt.IsZero() {
		fmt.Fprintf(w, "Connected:\t%s (%s)\n", st.ConnectedAt.Format(time.RFC3339), fmtAge(st.ConnectedAt))
	}
	if st.Attempts > 0 {
		fmt.Fprintf(w, "Failed attempts:\t%d\n", st.Attempts)
	}
	if st.LastError != "" {
		fmt.Fprintf(w, "Last error:\t%s\n", st.LastError)
	}
	_ = w.Flush()
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return fmt.Sprintf("%dh%dm ago", int(age.Hours()), int(age.Minutes())%60)
}
