// Command lancamentos-cli operates on the ledger workbook from the terminal:
// the same validation, append and aggregation pipeline as the web pages,
// without the server.
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lancamentos/internal/core"
	applog "lancamentos/internal/log"
	"lancamentos/internal/sheets/excel"
)

var (
	ledgerFile string
	sheetName  string

	addDate        string
	addAmount      string
	addSupplier    string
	addDescription string
	addAccount     string

	reportDate string
	exportDate string
	exportOut  string
)

func newStore() *excel.Store {
	logger := applog.New(applog.Config{
		Level:     slog.LevelWarn,
		Component: applog.ComponentCLI,
	})
	return excel.New(ledgerFile, sheetName, logger)
}

func loadLedger(cmd *cobra.Command) (core.Ledger, error) {
	ledger, err := newStore().Load(cmd.Context())
	if err != nil {
		return core.Ledger{}, err
	}
	return ledger, nil
}

func writeTable(records []core.Record) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "id\tdata\tvalor\tfornecedor\tdescricao\tconta")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.IssueDate.String(), r.Amount.String(), r.Supplier, r.Description, r.Account)
	}
	w.Flush()
}

var rootCmd = &cobra.Command{
	Use:   "lancamentos-cli",
	Short: "Registra e consulta lançamentos no arquivo de planilha",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Cria o arquivo de lançamentos com o cabeçalho canônico",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newStore().Init(); err != nil {
			return err
		}
		fmt.Println("arquivo pronto:", ledgerFile)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Valida e grava um novo lançamento",
	RunE: func(cmd *cobra.Command, args []string) error {
		candidate := core.Candidate{
			IssueDate:   addDate,
			Amount:      addAmount,
			Supplier:    addSupplier,
			Description: addDescription,
			Account:     addAccount,
		}
		if err := candidate.Validate(); err != nil {
			var verr *core.ValidationError
			if errors.As(err, &verr) {
				switch verr.Kind {
				case core.InvalidDate:
					return errors.New("data inválida: use o formato dd/mm/aaaa")
				case core.InvalidAmount:
					return errors.New("valor inválido: use o formato 9999,99")
				case core.MissingField:
					return fmt.Errorf("campo obrigatório vazio: %s", verr.Field)
				}
			}
			return err
		}
		id, err := newStore().Append(cmd.Context(), candidate)
		if err != nil {
			return err
		}
		fmt.Printf("lançamento gravado com id %d\n", id)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lista todos os lançamentos",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := loadLedger(cmd)
		if err != nil {
			return err
		}
		if len(ledger.Records) == 0 {
			fmt.Println("nenhum lançamento registrado")
			return nil
		}
		writeTable(ledger.Records)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Relatório dos lançamentos de uma data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := loadLedger(cmd)
		if err != nil {
			return err
		}
		dates := ledger.Dates()
		if len(dates) == 0 {
			fmt.Println("nenhum lançamento registrado")
			return nil
		}
		selected := reportDate
		if selected == "" {
			selected = dates[0]
		}
		filtered := ledger.FilterByDate(selected)
		if len(filtered) == 0 {
			fmt.Printf("nenhum lançamento encontrado para a data %s\n", selected)
			return nil
		}
		writeTable(filtered)
		total, counted := core.Sum(filtered)
		fmt.Printf("\ntotal de lançamentos: %d | valor total: %s\n", counted, core.FormatAmount(total))
		return nil
	},
}

var resumoCmd = &cobra.Command{
	Use:   "resumo",
	Short: "Somas por data e por fornecedor",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := loadLedger(cmd)
		if err != nil {
			return err
		}
		byDay := core.GroupByDay(ledger.Records)
		bySupplier := core.GroupBySupplier(ledger.Records)
		if len(byDay) == 0 && len(bySupplier) == 0 {
			fmt.Println("nenhum dado válido para agregar")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "por data\ttotal\tlançamentos")
		for _, b := range byDay {
			fmt.Fprintf(w, "%s\t%s\t%d\n", b.Key, core.FormatAmount(b.Total), b.Count)
		}
		fmt.Fprintln(w, "\npor fornecedor\ttotal\tlançamentos")
		for _, b := range bySupplier {
			fmt.Fprintf(w, "%s\t%s\t%d\n", b.Key, core.FormatAmount(b.Total), b.Count)
		}
		w.Flush()

		if top, ok := core.Top(byDay); ok {
			fmt.Printf("\nmaior dia: %s (%s)\n", top.Key, core.FormatAmount(top.Total))
		}
		if top, ok := core.Top(bySupplier); ok {
			fmt.Printf("maior fornecedor: %s (%s)\n", top.Key, core.FormatAmount(top.Total))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exporta lançamentos em CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := loadLedger(cmd)
		if err != nil {
			return err
		}
		records := ledger.Records
		if exportDate != "" {
			records = ledger.FilterByDate(exportDate)
		}

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", exportOut, err)
			}
			defer f.Close()
			out = f
		}

		cw := csv.NewWriter(out)
		if err := cw.Write(core.Header()); err != nil {
			return err
		}
		for _, r := range records {
			row := []string{
				strconv.FormatInt(r.ID, 10),
				r.IssueDate.Raw,
				r.Amount.Raw,
				r.Supplier,
				r.Description,
				r.Account,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ledgerFile, "file", "./datasets/vendas_certo.xlsx", "caminho do arquivo de lançamentos")
	rootCmd.PersistentFlags().StringVar(&sheetName, "sheet", "Sheet1", "nome da aba da planilha")

	addCmd.Flags().StringVar(&addDate, "data", "", "data de emissão (dd/mm/aaaa)")
	addCmd.Flags().StringVar(&addAmount, "valor", "", "valor (9999,99)")
	addCmd.Flags().StringVar(&addSupplier, "fornecedor", "", "fornecedor")
	addCmd.Flags().StringVar(&addDescription, "descricao", "", "descrição")
	addCmd.Flags().StringVar(&addAccount, "conta", "", "conta")

	reportCmd.Flags().StringVar(&reportDate, "data", "", "data do relatório (dd/mm/aaaa)")

	exportCmd.Flags().StringVar(&exportDate, "data", "", "filtra por data (dd/mm/aaaa)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "arquivo de saída (padrão: stdout)")

	rootCmd.AddCommand(initCmd, addCmd, listCmd, reportCmd, resumoCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}
