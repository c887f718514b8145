package cmd

import (
	"errors"

	"github.com/khrees2412/devapply/internal/upload"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload your resume (PDF or Word, up to 5MB)",
	Example: `  devapply upload ~/Documents/resume.pdf
  devapply upload cv.docx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, sess, err := requireSession(cmd)
		if err != nil {
			return err
		}

		uploader := upload.NewUploader(application.API, application.Log)
		if err := uploader.Select(args[0]); err != nil {
			return err
		}
		state := uploader.State()
		cmd.Printf("%s %s (%s, %s)\n", labelStyle.Render("Uploading:"), state.File.Name, state.File.MIME, humanSize(state.File.Size))

		if err := uploader.Submit(cmd.Context(), sess.Credential); err != nil {
			return errors.New(uploader.State().Error)
		}
		cmd.Println(successStyle.Render("✓ " + upload.SuccessMessage))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
