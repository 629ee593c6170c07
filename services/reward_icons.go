package services

import (
	"encoding/json"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"habit-garden-system/models"
	"habit-garden-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// storeIcon uploads one icon to R2 and persists the CDN URL on the catalog
// row. The in-memory catalog keeps serving the old URL until next boot.
func (s *RewardService) storeIcon(file *multipart.FileHeader, reward *models.Reward) (string, error) {
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "reward-icons/" + reward.Code + ext

	url, err := utils.UploadFileToR2(file, key)
	if err != nil {
		return "", err
	}

	if err := s.DB.Model(&models.Reward{}).
		Where("code = ?", reward.Code).
		Update("icon_url", url).Error; err != nil {
		return "", err
	}
	return url, nil
}

// UploadIconPack ingests a zip of reward icons in one call (admin). The
// archive must contain a manifest.json mapping reward codes to file paths
// inside the archive; unknown codes are reported back, not fatal.
func (s *RewardService) UploadIconPack(c *fiber.Ctx) error {
	packFile, err := c.FormFile("pack")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "pack file is required"})
	}

	tmpZip := utils.GetUploadPath("iconpacks/" + uuid.NewString() + ".zip")
	if err := utils.SaveFile(packFile, tmpZip); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save icon pack"})
	}
	defer os.Remove(tmpZip)

	destDir := utils.GetUploadPath("iconpacks/" + uuid.NewString())
	if err := utils.ExtractIconPack(tmpZip, destDir); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid zip archive", "cause": err.Error()})
	}
	defer os.RemoveAll(destDir)

	manifestPath, err := utils.FindManifest(destDir)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "icon pack has no manifest.json"})
	}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read manifest"})
	}
	var manifest utils.IconManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid manifest.json", "cause": err.Error()})
	}

	packRoot := filepath.Dir(manifestPath)
	var uploaded []string
	var skipped []string
	for code, rel := range manifest.Icons {
		reward := s.Catalog.ByCode(code)
		if reward == nil {
			skipped = append(skipped, code)
			continue
		}

		iconPath, err := utils.ResolveWithin(packRoot, rel)
		if err != nil {
			log.Printf("Icon pack: rejected path %q for code %s: %v", rel, code, err)
			skipped = append(skipped, code)
			continue
		}
		data, err := os.ReadFile(iconPath)
		if err != nil {
			log.Printf("Icon pack: missing file %q for code %s: %v", rel, code, err)
			skipped = append(skipped, code)
			continue
		}

		ext := filepath.Ext(rel)
		if ext == "" {
			ext = ".png"
		}
		key := "reward-icons/" + code + ext
		url, err := utils.UploadBytesToR2(key, contentTypeForExt(ext), data)
		if err != nil {
			log.Printf("Icon pack: upload failed for %s: %v", code, err)
			skipped = append(skipped, code)
			continue
		}

		if err := s.DB.Model(&models.Reward{}).
			Where("code = ?", code).
			Update("icon_url", url).Error; err != nil {
			log.Printf("Icon pack: DB update failed for %s: %v", code, err)
			skipped = append(skipped, code)
			continue
		}
		uploaded = append(uploaded, code)
	}

	log.Printf("🖼️ Icon pack processed: %d uploaded, %d skipped", len(uploaded), len(skipped))
	return c.JSON(fiber.Map{
		"uploaded": uploaded,
		"skipped":  skipped,
	})
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
