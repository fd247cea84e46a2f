// Package cli is the cobra command tree for shop operators working from a terminal.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"taller/internal/app"
	"taller/internal/core"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Opener connects to the backing services. The returned func releases them.
type Opener func(ctx context.Context) (app.ApplicationService, func(), error)

type runner struct {
	open    Opener
	timeout time.Duration
	asJSON  bool
}

// NewRootCommand builds the taller command tree.
func NewRootCommand(open Opener) *cobra.Command {
	r := &runner{open: open}

	root := &cobra.Command{
		Use:           "taller",
		Short:         "Repair shop operations from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&r.timeout, "timeout", 30*time.Second, "Operation timeout")
	root.PersistentFlags().BoolVar(&r.asJSON, "json", false, "Print raw JSON instead of tables")

	orden := &cobra.Command{
		Use:     "orden",
		Aliases: []string{"ord", "o"},
		Short:   "Inspect and advance reparaciones",
	}
	orden.AddCommand(r.ordenListCmd(), r.ordenShowCmd(), r.ordenNovedadCmd())

	usuario := &cobra.Command{
		Use:   "usuario",
		Short: "Manage operator accounts",
	}
	usuario.AddCommand(r.usuarioCrearCmd())

	root.AddCommand(r.kanbanCmd(), orden, r.resumenCmd(), usuario, r.seedCmd())
	return root
}

// with opens the service for the duration of fn.
func (r *runner) with(cmd *cobra.Command, fn func(ctx context.Context, svc app.ApplicationService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	svc, closeFn, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc)
}

func (r *runner) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── kanban ───────────────────────────────────────────────────────────────────

func (r *runner) kanbanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kanban",
		Short: "Show open reparaciones grouped by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				res, err := svc.Kanban(ctx)
				if err != nil {
					return fmt.Errorf("failed to load kanban: %w", err)
				}
				out := cmd.OutOrStdout()
				if r.asJSON {
					return r.printJSON(out, res.Board)
				}
				printKanban(out, res.Board)
				return nil
			})
		},
	}
}

func printKanban(w io.Writer, b core.Board) {
	for _, col := range b.Columns {
		fmt.Fprintf(w, "\n%s (%d)\n", strings.ToUpper(col.Titulo), len(col.Cards))
		fmt.Fprintln(w, strings.Repeat("─", 60))
		for _, c := range col.Cards {
			fmt.Fprintf(w, "  %-10s %-22s %-18s %3dd\n", c.Codigo, truncate(c.Equipo, 22), truncate(c.ClienteNombre, 18), c.DiasEnTaller)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d\n", b.Total)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// ── orden ────────────────────────────────────────────────────────────────────

func (r *runner) ordenListCmd() *cobra.Command {
	var req app.ListOrdersRequest
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reparaciones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				res, err := svc.ListOrders(ctx, req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if r.asJSON {
					return r.printJSON(out, res.Orders)
				}
				for _, o := range res.Orders {
					fmt.Fprintf(out, "%-10s %-14s %-24s %s\n", o.Codigo, o.Estado, truncate(o.Equipo, 24), o.ClienteNombre)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Estado, "estado", "", "Filter by estado code")
	cmd.Flags().StringVarP(&req.Query, "query", "q", "", "Search equipo, marca, modelo or codigo")
	cmd.Flags().BoolVar(&req.IncludeClosed, "cerradas", false, "Include retired and archived orders")
	cmd.Flags().IntVar(&req.Limit, "limit", 50, "Maximum rows")
	return cmd
}

func (r *runner) ordenShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|codigo>",
		Short: "Show one reparacion with its novedades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				res, err := svc.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if r.asJSON {
					return r.printJSON(out, res)
				}
				printOrder(out, res)
				return nil
			})
		},
	}
}

func printOrder(w io.Writer, res *app.OrderResult) {
	o := res.Order
	fmt.Fprintf(w, "%s  %s\n", o.Codigo, o.Estado)
	fmt.Fprintf(w, "Cliente : %s %s\n", o.ClienteNombre, o.ClienteTelefono)
	fmt.Fprintf(w, "Equipo  : %s %s %s\n", o.Equipo, o.Marca, o.Modelo)
	if o.Falla != "" {
		fmt.Fprintf(w, "Falla   : %s\n", o.Falla)
	}
	if o.Presupuesto != nil {
		fmt.Fprintf(w, "Presup. : %s\n", core.FormatMoney(*o.Presupuesto))
	}
	if !o.Sena.IsZero() {
		fmt.Fprintf(w, "Seña    : %s\n", core.FormatMoney(o.Sena))
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, n := range res.Novedades {
		line := fmt.Sprintf("  %s  %-14s", n.CreatedAt.Format("2006-01-02 15:04"), n.Tipo)
		if n.Monto != nil {
			line += " " + core.FormatMoney(*n.Monto)
		}
		if n.Observacion != "" {
			line += "  " + n.Observacion
		}
		fmt.Fprintln(w, line)
	}
	if len(res.Siguientes) > 0 {
		next := make([]string, len(res.Siguientes))
		for i, e := range res.Siguientes {
			next[i] = string(e)
		}
		fmt.Fprintf(w, "Siguientes: %s\n", strings.Join(next, ", "))
	}
}

func (r *runner) ordenNovedadCmd() *cobra.Command {
	var monto, medio, obs, usuario string
	cmd := &cobra.Command{
		Use:   "novedad <id|codigo> <tipo>",
		Short: "Apply a workflow novedad (PRESUPUESTADO, ACEPTA, REPARADO, RETIRA, ...)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.NovedadRequest{Tipo: args[1], MedioPago: medio, Observacion: obs, Usuario: usuario}
			if monto != "" {
				d, err := decimal.NewFromString(monto)
				if err != nil {
					return fmt.Errorf("invalid --monto %q: %w", monto, err)
				}
				req.Monto = &d
			}
			return r.with(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				res, err := svc.ApplyNovedad(ctx, args[0], req)
				if err != nil {
					return err
				}
				if r.asJSON {
					return r.printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", res.Order.Codigo, res.Order.Estado)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&monto, "monto", "", "Amount (presupuesto, precio final or amount charged)")
	cmd.Flags().StringVar(&medio, "medio", "", "Medio de pago for RETIRA (default EFECTIVO)")
	cmd.Flags().StringVar(&obs, "obs", "", "Observacion")
	cmd.Flags().StringVar(&usuario, "usuario", os.Getenv("USER"), "Operator recorded on the novedad")
	return cmd
}

// ── resumen ──────────────────────────────────────────────────────────────────

func (r *runner) resumenCmd() *cobra.Command {
	var req app.SummaryRequest
	var xlsxPath string
	cmd := &cobra.Command{
		Use:   "resumen",
		Short: "Ventas and cobros per day, week or month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				if xlsxPath != "" {
					return exportXLSX(ctx, svc, req, xlsxPath, cmd.OutOrStdout())
				}
				s, err := svc.GetSummary(ctx, req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if r.asJSON {
					return r.printJSON(out, s)
				}
				printSummary(out, s)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Desde, "desde", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Hasta, "hasta", "", "Last day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&req.Bucket, "bucket", "dia", "dia, semana or mes")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the summary to this .xlsx file instead of printing")
	return cmd
}

func exportXLSX(ctx context.Context, svc app.ApplicationService, req app.SummaryRequest, path string, out io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := svc.ExportSummary(ctx, req, f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(out, "Resumen exportado a %s\n", path)
	return nil
}

func printSummary(w io.Writer, s *core.Summary) {
	fmt.Fprintf(w, "%-12s %16s %16s %16s %6s\n", "PERIODO", "VENTAS", "COBRADO", "SALDO", "CANT")
	fmt.Fprintln(w, strings.Repeat("─", 70))
	for _, b := range s.Buckets {
		fmt.Fprintf(w, "%-12s %16s %16s %16s %6d\n", b.Etiqueta, core.FormatMoney(b.Ventas), core.FormatMoney(b.Cobrado), core.FormatMoney(b.Saldo), b.Cantidad)
	}
	fmt.Fprintln(w, strings.Repeat("─", 70))
	fmt.Fprintf(w, "%-12s %16s %16s %16s %6d\n", "TOTAL", core.FormatMoney(s.Ventas), core.FormatMoney(s.Cobrado), core.FormatMoney(s.Saldo), s.Cantidad)
}

// ── usuario / seed ───────────────────────────────────────────────────────────

func (r *runner) usuarioCrearCmd() *cobra.Command {
	var nombre, rol, password string
	cmd := &cobra.Command{
		Use:   "crear <username>",
		Short: "Create an operator account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("TALLER_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("password required: pass --password or set TALLER_PASSWORD")
			}
			return r.with(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				u, err := svc.CreateUser(ctx, app.CreateUserRequest{Username: args[0], Nombre: nombre, Password: password, Rol: rol})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Usuario %s creado (id %d, rol %s)\n", u.Username, u.ID, u.Rol)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&nombre, "nombre", "", "Display name")
	cmd.Flags().StringVar(&rol, "rol", core.RolTecnico, "admin or tecnico")
	cmd.Flags().StringVar(&password, "password", "", "Password (or TALLER_PASSWORD)")
	return cmd
}

func (r *runner) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default WhatsApp plantillas when none exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				n, err := svc.SeedPlantillas(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d plantillas insertadas\n", n)
				return nil
			})
		},
	}
}
