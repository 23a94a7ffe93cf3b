package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables in dependency order.  Every statement is
// idempotent so Migrate can run on each start.
//
// Money columns are DECIMAL(10,2) in major units.  Ids are UUID strings.
// Uniqueness rules the application relies on live here as constraints:
// one account per student email, one scholarship per student, one sponsor
// per external payment id and one processed row per event id and per
// (payment id, kind).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id                         CHAR(36)      NOT NULL PRIMARY KEY,
		first_name                 VARCHAR(100)  NOT NULL,
		last_name                  VARCHAR(100)  NOT NULL,
		email                      VARCHAR(255)  NOT NULL,
		phone                      VARCHAR(50)   NOT NULL DEFAULT '',
		date_of_birth              DATETIME      NULL,
		parent_name                VARCHAR(200)  NOT NULL DEFAULT '',
		parent_email               VARCHAR(255)  NOT NULL DEFAULT '',
		parent_phone               VARCHAR(50)   NOT NULL DEFAULT '',
		emergency_contact_name     VARCHAR(200)  NOT NULL DEFAULT '',
		emergency_contact_phone    VARCHAR(50)   NOT NULL DEFAULT '',
		emergency_contact_relation VARCHAR(100)  NOT NULL DEFAULT '',
		waiver_signed              BOOLEAN       NOT NULL DEFAULT FALSE,
		waiver_signed_date         DATETIME(3)   NULL,
		waiver_signature           VARCHAR(255)  NOT NULL DEFAULT '',
		first_class_taken          BOOLEAN       NOT NULL DEFAULT FALSE,
		first_class_date           DATETIME(3)   NULL,
		payment_status             ENUM('pending','paid','overdue') NOT NULL DEFAULT 'pending',
		scholarship_status         ENUM('none','applied','approved','denied') NOT NULL DEFAULT 'none',
		scholarship_amount         DECIMAL(10,2) NOT NULL DEFAULT 0,
		sponsor_id                 CHAR(36)      NULL,
		is_active                  BOOLEAN       NOT NULL DEFAULT TRUE,
		notes                      VARCHAR(1000) NOT NULL DEFAULT '',
		created_at                 DATETIME(3)   NOT NULL,
		updated_at                 DATETIME(3)   NOT NULL,
		UNIQUE KEY uq_students_email (email),
		KEY idx_students_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS student_payments (
		id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		student_id          CHAR(36)      NOT NULL,
		amount              DECIMAL(10,2) NOT NULL,
		paid_at             DATETIME(3)   NOT NULL,
		external_payment_id VARCHAR(255)  NOT NULL DEFAULT '',
		description         VARCHAR(255)  NOT NULL DEFAULT '',
		KEY idx_student_payments_student (student_id),
		CONSTRAINT fk_student_payments_student FOREIGN KEY (student_id) REFERENCES students(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS student_classes (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		student_id  CHAR(36)     NOT NULL,
		class_name  VARCHAR(200) NOT NULL DEFAULT '',
		attended_at DATETIME(3)  NOT NULL,
		instructor  VARCHAR(200) NOT NULL DEFAULT '',
		KEY idx_student_classes_student (student_id),
		CONSTRAINT fk_student_classes_student FOREIGN KEY (student_id) REFERENCES students(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sponsors (
		id                   CHAR(36)      NOT NULL PRIMARY KEY,
		name                 VARCHAR(200)  NOT NULL DEFAULT '',
		email                VARCHAR(255)  NOT NULL DEFAULT '',
		phone                VARCHAR(50)   NOT NULL DEFAULT '',
		organization_name    VARCHAR(200)  NOT NULL DEFAULT '',
		sponsorship_type     ENUM('student-sponsor','dance-bag-kit','general-donation') NOT NULL,
		amount               DECIMAL(10,2) NOT NULL,
		payment_date         DATETIME(3)   NOT NULL,
		external_payment_id  VARCHAR(255)  NOT NULL,
		payment_status       ENUM('pending','completed','failed','refunded') NOT NULL DEFAULT 'pending',
		sponsored_student_id CHAR(36)      NULL,
		public_recognition   BOOLEAN       NOT NULL DEFAULT TRUE,
		recognition_name     VARCHAR(200)  NOT NULL DEFAULT '',
		newsletter           BOOLEAN       NOT NULL DEFAULT TRUE,
		updates              BOOLEAN       NOT NULL DEFAULT TRUE,
		notes                VARCHAR(1000) NOT NULL DEFAULT '',
		is_recurring         BOOLEAN       NOT NULL DEFAULT FALSE,
		recurring_frequency  VARCHAR(20)   NOT NULL DEFAULT '',
		created_at           DATETIME(3)   NOT NULL,
		updated_at           DATETIME(3)   NOT NULL,
		UNIQUE KEY uq_sponsors_external_payment (external_payment_id),
		KEY idx_sponsors_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS scholarships (
		id                   CHAR(36)      NOT NULL PRIMARY KEY,
		student_id           CHAR(36)      NOT NULL,
		application_date     DATETIME(3)   NOT NULL,
		household_income     ENUM('under-25k','25k-50k','50k-75k','75k-100k','over-100k') NOT NULL,
		number_of_dependents INT UNSIGNED  NOT NULL DEFAULT 0,
		why_dance_important  VARCHAR(500)  NOT NULL,
		how_will_help_child  VARCHAR(500)  NOT NULL,
		additional_info      VARCHAR(300)  NOT NULL DEFAULT '',
		status               ENUM('pending','under-review','approved','denied') NOT NULL DEFAULT 'pending',
		reviewed_by          VARCHAR(200)  NOT NULL DEFAULT '',
		review_date          DATETIME(3)   NULL,
		review_notes         VARCHAR(1000) NOT NULL DEFAULT '',
		award_amount         DECIMAL(10,2) NOT NULL DEFAULT 0,
		award_duration       VARCHAR(100)  NOT NULL DEFAULT '',
		created_at           DATETIME(3)   NOT NULL,
		updated_at           DATETIME(3)   NOT NULL,
		UNIQUE KEY uq_scholarships_student (student_id),
		CONSTRAINT fk_scholarships_student FOREIGN KEY (student_id) REFERENCES students(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id                CHAR(36)     NOT NULL PRIMARY KEY,
		name              VARCHAR(200) NOT NULL,
		email             VARCHAR(255) NOT NULL,
		phone             VARCHAR(50)  NOT NULL DEFAULT '',
		organization_name VARCHAR(200) NOT NULL DEFAULT '',
		organization_type ENUM('nonprofit','sponsor','general','other') NOT NULL,
		subject           VARCHAR(255) NOT NULL,
		message           TEXT         NOT NULL,
		status            ENUM('new','contacted','in-progress','completed','closed') NOT NULL DEFAULT 'new',
		assigned_to       VARCHAR(200) NOT NULL DEFAULT '',
		responded         BOOLEAN      NOT NULL DEFAULT FALSE,
		response_date     DATETIME(3)  NULL,
		created_at        DATETIME(3)  NOT NULL,
		updated_at        DATETIME(3)  NOT NULL,
		KEY idx_contacts_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS contact_notes (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		contact_id CHAR(36)     NOT NULL,
		note       TEXT         NOT NULL,
		added_by   VARCHAR(200) NOT NULL,
		noted_at   DATETIME(3)  NOT NULL,
		KEY idx_contact_notes_contact (contact_id),
		CONSTRAINT fk_contact_notes_contact FOREIGN KEY (contact_id) REFERENCES contacts(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS gallery_items (
		id             CHAR(36)        NOT NULL PRIMARY KEY,
		filename       VARCHAR(255)    NOT NULL,
		original_name  VARCHAR(255)    NOT NULL,
		mime_type      VARCHAR(100)    NOT NULL,
		size           BIGINT UNSIGNED NOT NULL,
		type           ENUM('photo','video') NOT NULL,
		title          VARCHAR(100)    NOT NULL DEFAULT '',
		description    VARCHAR(500)    NOT NULL DEFAULT '',
		event_name     VARCHAR(200)    NOT NULL DEFAULT '',
		event_date     DATETIME(3)     NULL,
		instructor     VARCHAR(200)    NOT NULL DEFAULT '',
		class_type     VARCHAR(50)     NOT NULL DEFAULT '',
		file_path      VARCHAR(500)    NOT NULL,
		thumbnail_path VARCHAR(500)    NOT NULL DEFAULT '',
		is_public      BOOLEAN         NOT NULL DEFAULT TRUE,
		is_active      BOOLEAN         NOT NULL DEFAULT TRUE,
		uploaded_by    VARCHAR(200)    NOT NULL,
		tags           JSON            NOT NULL,
		likes          BIGINT UNSIGNED NOT NULL DEFAULT 0,
		views          BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at     DATETIME(3)     NOT NULL,
		updated_at     DATETIME(3)     NOT NULL,
		KEY idx_gallery_created (created_at),
		KEY idx_gallery_filters (is_active, is_public, type)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS processed_payment_events (
		event_id     VARCHAR(255) NOT NULL PRIMARY KEY,
		payment_id   VARCHAR(255) NULL,
		kind         VARCHAR(100) NOT NULL,
		purpose      VARCHAR(50)  NOT NULL DEFAULT '',
		processed_at DATETIME(3)  NOT NULL,
		UNIQUE KEY uq_processed_payment_kind (payment_id, kind)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
