/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/difftran/internal/detector"
	"github.com/valpere/difftran/internal/dispatch"
	"github.com/valpere/difftran/internal/index"
	"github.com/valpere/difftran/internal/orchestrator"
	"github.com/valpere/difftran/internal/source"
	"github.com/valpere/difftran/internal/store"
	"github.com/valpere/difftran/internal/transform"
	"github.com/valpere/difftran/internal/translator"
	"github.com/valpere/difftran/internal/validator"
)

var (
	runMode        string
	runSourceDir   string
	runTag         string
	runDestDir     string
	runIndexPath   string
	runIgnoreIndex bool
	runOverwrite   bool

	runSourceLang string
	runTargetLang string
	runColumns    []int
	runValidate   bool

	runServices    []string
	runCredentials string
	runProjectID   string
	runSystranKey  string
	runMymemory    string
	runOllamaURL   string
	runOllamaMods  []string
	runMaxRetries  int

	runDBPath  string
	runNoCache bool
	runWorkers int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Translate new units from a folder or a remote diff feed",
	Long: `Run one incremental translation pass.

In folder mode every *.csv file under --dir is a candidate; its identity
is the origin URL declared inside the content. In diff mode the manifest
at <diff-url>/<tag>.json names added record files; only paths under the
configured namespace become candidates and content is fetched lazily.

A unit is skipped when the completion index contains its identity key or
(unless --overwrite) its destination file already exists. Unit failures
are logged and counted; they never abort the run.

Examples:
  difftran run --mode folder --dir ./corpus --dest ./out --to uk
  difftran run --mode diff --tag v20250801 --dest ./out --to uk --index done.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		ctx := context.Background()

		if runMode != "folder" && runMode != "diff" {
			return fmt.Errorf("invalid --mode %q: must be folder or diff", runMode)
		}
		if runMode == "folder" && runSourceDir == "" {
			return fmt.Errorf("--dir is required in folder mode")
		}
		if runMode == "diff" && runTag == "" {
			return fmt.Errorf("--tag is required in diff mode")
		}

		// Both completion signals are configured independently: the index
		// can be ignored while destination checks stay on, and vice versa.
		indexPath := runIndexPath
		if runIgnoreIndex {
			indexPath = ""
		}
		ix, err := index.Load(indexPath)
		if err != nil {
			return err
		}
		log.Debug().Int("entries", len(ix)).Str("path", indexPath).Msg("completion index loaded")

		var db *store.Store
		if !runNoCache && runDBPath != "" {
			db, err = store.New(runDBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		services, err := buildServices(runServices, runCredentials, runProjectID,
			runSystranKey, runMymemory, runOllamaURL, runOllamaMods)
		if err != nil {
			return err
		}
		chain := translator.NewChain(services, runMaxRetries, log)

		tf := &transform.CSV{
			Chain:      chain,
			Cfg:        translator.ServiceConfig{Credentials: runCredentials, ProjectID: runProjectID},
			SourceLang: runSourceLang,
			TargetLang: runTargetLang,
			Columns:    runColumns,
			Log:        log,
		}
		if db != nil {
			tf.Memory = db
		}
		if runSourceLang == "auto" || runValidate {
			det := detector.New()
			tf.Detector = det
			if runValidate {
				tf.Validator = validator.New(det)
			}
		}

		disp := dispatch.New(ix, dispatch.Policy{
			DestDir:      runDestDir,
			SkipExisting: !runOverwrite,
		}, tf, log)

		var enum source.Enumerator
		switch runMode {
		case "folder":
			enum = source.NewFolder(runSourceDir, log)
		case "diff":
			diffURL := viper.GetString("remote.diff_url")
			assetURL := viper.GetString("remote.asset_url")
			if diffURL == "" || assetURL == "" {
				return fmt.Errorf("diff mode needs --diff-url and --asset-url (or remote.diff_url / remote.asset_url in config)")
			}
			d := source.NewDiff(diffURL, assetURL, runTag, log)
			if ns := viper.GetString("remote.namespace"); ns != "" {
				d.Namespace = ns
			}
			enum = d
		}

		var runID string
		if db != nil {
			if runID, err = db.BeginRun(ctx, runMode, runTag); err != nil {
				log.Warn().Err(err).Msg("cannot record run start")
				runID = ""
			}
		}

		orch := orchestrator.New(enum, disp, orchestrator.Config{Workers: runWorkers}, log)
		summary, runErr := orch.Run(ctx)

		if db != nil && runID != "" {
			for _, out := range summary.Outcomes {
				errMsg := ""
				if out.Err != nil {
					errMsg = out.Err.Error()
				}
				if err := db.SaveUnitOutcome(ctx, runID, out.Locator, out.Identity,
					out.Status.String(), out.Reason.String(), errMsg); err != nil {
					log.Warn().Err(err).Msg("cannot record unit outcome")
					break
				}
			}
			if err := db.FinishRun(ctx, runID, summary.Translated, summary.Skipped, summary.Failed); err != nil {
				log.Warn().Err(err).Msg("cannot record run finish")
			}
		}

		if runErr != nil {
			return runErr
		}

		fmt.Printf("Processed %d units: %d translated, %d skipped, %d failed\n",
			summary.Processed(), summary.Translated, summary.Skipped, summary.Failed)
		for _, out := range summary.Outcomes {
			if out.Status == dispatch.StatusFailed {
				fmt.Printf("  failed: %s (%v)\n", out.Locator, out.Err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runMode, "mode", "folder", "Source mode: folder or diff")
	runCmd.Flags().StringVar(&runSourceDir, "dir", "", "Source directory (folder mode)")
	runCmd.Flags().StringVar(&runTag, "tag", "", "Diff feed version tag (diff mode)")
	runCmd.Flags().StringVarP(&runDestDir, "dest", "d", "", "Destination folder for translated output (required)")
	runCmd.Flags().StringVar(&runIndexPath, "index", "", "Completion index file (JSON map of identity key to marker)")
	runCmd.Flags().BoolVar(&runIgnoreIndex, "ignore-index", false, "Skip the completion index signal")
	runCmd.Flags().BoolVar(&runOverwrite, "overwrite", false, "Translate even when the destination file exists")

	runCmd.Flags().StringVar(&runSourceLang, "from", "auto", "Source language code")
	runCmd.Flags().StringVar(&runTargetLang, "to", "", "Target language code (required)")
	runCmd.Flags().IntSliceVarP(&runColumns, "column", "l", nil, "Column index to translate (0-indexed, repeatable; default: all except origin)")
	runCmd.Flags().BoolVar(&runValidate, "validate", false, "Warn when translated cells are not in the target language")

	runCmd.Flags().StringSliceVar(&runServices, "services", []string{"google"}, "Translation services in fallback order (google, systran, mymemory, ollama)")
	runCmd.Flags().StringVarP(&runCredentials, "credentials", "c", "", "Path to Google Cloud credentials")
	runCmd.Flags().StringVarP(&runProjectID, "project", "p", "", "Google Cloud project ID")
	runCmd.Flags().StringVar(&runSystranKey, "systran-key", "", "Systran API key")
	runCmd.Flags().StringVar(&runMymemory, "mymemory-email", "", "MyMemory email (for higher limits)")
	runCmd.Flags().StringVar(&runOllamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	runCmd.Flags().StringSliceVar(&runOllamaMods, "ollama-models", nil, "Ollama models to rotate (default list used if empty)")
	runCmd.Flags().IntVar(&runMaxRetries, "max-retries", 3, "Attempts per service including the first (1 = no retries)")

	runCmd.Flags().String("diff-url", "", "Diff manifest base URL (diff mode)")
	runCmd.Flags().String("asset-url", "", "Asset base URL (diff mode)")
	runCmd.Flags().String("namespace", source.DefaultNamespace, "Manifest path prefix selecting record files")
	viper.BindPFlag("remote.diff_url", runCmd.Flags().Lookup("diff-url"))
	viper.BindPFlag("remote.asset_url", runCmd.Flags().Lookup("asset-url"))
	viper.BindPFlag("remote.namespace", runCmd.Flags().Lookup("namespace"))

	runCmd.Flags().StringVar(&runDBPath, "db", "./data/difftran.db", "Database path for translation memory and run history")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "Disable translation memory and run history")
	runCmd.Flags().IntVar(&runWorkers, "workers", 1, "Concurrent unit dispatches")

	runCmd.MarkFlagRequired("dest")
	runCmd.MarkFlagRequired("to")
}
