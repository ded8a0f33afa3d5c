// Пакет для очистки осиротевших вложений в файловом хранилище. Обнаруживает объекты, на которые не ссылается ни одна строка вложений в базе данных, и удаляет их из хранилища.
//
// Основные возможности:
//   - Обход корня хранилища вложений.
//   - Удаление объектов без записи в базе данных.
package maintenance

import (
	"log/slog"

	"github.com/aisa-it/taskflow/internal/taskflow/dao"
	filestorage "github.com/aisa-it/taskflow/internal/taskflow/file-storage"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type AttachmentsCleaner struct {
	db *gorm.DB
	si filestorage.FileStorage
}

func NewAttachmentsCleaner(db *gorm.DB, si filestorage.FileStorage) *AttachmentsCleaner {
	return &AttachmentsCleaner{db, si}
}

func (ac *AttachmentsCleaner) CleanAttachments() {
	slog.Info("Start attachments cleaning")
	var removed int
	if err := ac.si.ListRoot(func(fi filestorage.FileInfo) error {
		name, err := uuid.FromString(fi.Name)
		if err != nil {
			// Not an attachment object, leave it alone
			return nil
		}

		var exist bool
		if err := ac.db.
			Where("path = ?", fi.Name).
			Select("count(*) > 0").
			Model(&dao.TaskAttachment{}).
			Find(&exist).Error; err != nil {
			return err
		}
		if exist {
			return nil
		}
		if err := ac.si.Delete(name); err != nil {
			return err
		}
		removed++
		return nil
	}); err != nil {
		slog.Error("Clean attachments fail", "err", err)
	}
	slog.Info("Finish attachments cleaning", "removed", removed)
}
