package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-Admin-API-Key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("MEMBER_API_URL", "http://localhost:8080")
		apiKey  = envOr("MEMBER_API_KEY", "")
		out     = envOr("MEMBER_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "memberctl",
		Short: "CLI de operación del member signup API (vía /v1/admin)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				return fmt.Errorf("falta API key (flag --api-key o env MEMBER_API_KEY)")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del API (env MEMBER_API_URL)")
	root.PersistentFlags().StringVar(&apiKey, "api-key", apiKey, "Admin API key (env MEMBER_API_KEY)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{BaseURL: baseURL, APIKey: apiKey, OutFormat: out, HTTP: &http.Client{Timeout: timeout}}

	// records
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspección de signup records",
	}
	recordsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Listar todos los signup records",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/admin/records", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("list fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	})
	recordsCmd.AddCommand(&cobra.Command{
		Use:   "show <email>",
		Short: "Mostrar un record por email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/admin/records/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("show fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	})

	// sweep
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Disparar sweeps del reconciliation engine",
	}
	for _, name := range []string{"convergence", "membership"} {
		name := name
		sweepCmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: fmt.Sprintf("Correr el sweep de %s ahora", name),
			RunE: func(cmd *cobra.Command, args []string) error {
				status, body, err := cl.do("POST", "/v1/admin/sweeps/"+name, nil)
				if err != nil {
					return err
				}
				if status == http.StatusConflict {
					return fmt.Errorf("sweep %s ya está corriendo", name)
				}
				if status/100 != 2 {
					return fmt.Errorf("sweep fallo: status=%d body=%s", status, string(body))
				}
				cl.print(status, body)
				return nil
			},
		})
	}

	// otp
	otpCmd := &cobra.Command{
		Use:   "otp",
		Short: "Operaciones sobre códigos de verificación",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil // resend-otp es público, no requiere API key
		},
	}
	otpCmd.AddCommand(&cobra.Command{
		Use:   "resend <email>",
		Short: "Re-emitir el OTP de un signup pendiente",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"email": args[0]})
			status, respBody, err := cl.do("POST", "/v1/signup/resend-otp", body)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("resend fallo: status=%d body=%s", status, string(respBody))
			}
			cl.print(status, respBody)
			return nil
		},
	})

	// ping: usa el readyz público
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Chequear que el servicio esté listo",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil // readyz no requiere API key
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/readyz", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("not ready: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	root.AddCommand(recordsCmd, sweepCmd, otpCmd, pingCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
