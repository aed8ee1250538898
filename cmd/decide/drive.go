package main

import (
	"fmt"

	"github.com/andresuchdata/decision-intel/backend-go/internal/drive"
	"github.com/urfave/cli/v2"
)

func driveCommand() *cli.Command {
	return &cli.Command{
		Name:  "drive",
		Usage: "Download transaction files from a Google Drive folder and optionally analyze them",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "credentials",
				Usage:   "Service account credentials JSON",
				EnvVars: []string{"DRIVE_CREDENTIALS_JSON"},
			},
			&cli.StringFlag{
				Name:    "folder-id",
				Usage:   "Drive folder id",
				EnvVars: []string{"DRIVE_FOLDER_ID"},
			},
			&cli.StringFlag{
				Name:  "folder-path",
				Usage: "Drive folder path from the root, used when --folder-id is empty",
			},
			&cli.StringFlag{
				Name:    "dest",
				Usage:   "Local directory for downloaded files",
				Value:   "./data/drive",
				EnvVars: []string{"DRIVE_DOWNLOAD_DIR"},
			},
			&cli.BoolFlag{
				Name:  "analyze",
				Usage: "Analyze the downloaded files",
			},
		}, analysisFlags()...),
		Action: func(c *cli.Context) error {
			if c.String("credentials") == "" {
				return fmt.Errorf("drive credentials are required")
			}
			svc, err := drive.NewService(c.Context, c.String("credentials"))
			if err != nil {
				return err
			}

			folderID := c.String("folder-id")
			if folderID == "" {
				folderID, err = svc.FindFolderByPath(c.Context, c.String("folder-path"))
				if err != nil {
					return err
				}
			}

			paths, err := drive.NewDownloader(svc).DownloadFolder(c.Context, drive.DownloadOptions{
				FolderID:    folderID,
				DownloadDir: c.String("dest"),
			})
			if err != nil {
				return err
			}
			return finishDownload(c, paths)
		},
	}
}
