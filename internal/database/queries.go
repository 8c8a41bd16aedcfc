package database

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, role, password_hash, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email, role, password_hash) VALUES (?, ?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, role, password_hash, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, role, password_hash, created_at, updated_at
		FROM users
		WHERE email = ? AND active = 1`

	// Property queries
	queryInsertProperty = `
		INSERT INTO properties (id, landlord_id, title, address, city, monthly_price)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetPropertyById = `
		SELECT id, landlord_id, title, address, city, monthly_price, created_at
		FROM properties
		WHERE id = ? AND active = 1`

	// Agreement queries
	agreementColumns = `
		id, property_id, landlord_id, tenant_id, start_date, end_date,
		monthly_rent, security_deposit, terms, status,
		signed_by_landlord, signed_by_tenant, signed_at, version, created_at, updated_at`

	queryInsertAgreement = `
		INSERT INTO rental_agreements (
			id, property_id, landlord_id, tenant_id, start_date, end_date,
			monthly_rent, security_deposit, terms, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetAgreement = `
		SELECT ` + agreementColumns + `
		FROM rental_agreements
		WHERE id = ?`

	queryListAgreementsForUser = `
		SELECT ` + agreementColumns + `
		FROM rental_agreements
		WHERE landlord_id = ? OR tenant_id = ?
		ORDER BY created_at DESC`

	queryListAgreementsByStatus = `
		SELECT ` + agreementColumns + `
		FROM rental_agreements
		WHERE status = ?
		ORDER BY created_at`

	queryUpdateAgreementSignatures = `
		UPDATE rental_agreements
		SET signed_by_landlord = ?, signed_by_tenant = ?, status = ?, signed_at = ?,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	queryUpdateAgreementStatus = `
		UPDATE rental_agreements
		SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	queryDeleteAgreement = `
		DELETE FROM rental_agreements WHERE id = ?`

	// Payment queries
	paymentColumns = `
		id, rental_agreement_id, kind, amount, payment_method, status,
		transaction_id, payment_date, due_date, receipt_url, created_at, updated_at`

	queryInsertPayment = `
		INSERT INTO payments (
			id, rental_agreement_id, kind, amount, payment_method, status, payment_date, due_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryInsertPaymentIfActive = `
		INSERT INTO payments (
			id, rental_agreement_id, kind, amount, payment_method, status, payment_date, due_date
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (
			SELECT 1 FROM rental_agreements WHERE id = ? AND status = 'active'
		)`

	queryGetPayment = `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = ?`

	queryListPayments = `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE rental_agreement_id = ?
		ORDER BY due_date, created_at`

	queryUpdatePaymentStatus = `
		UPDATE payments
		SET status = ?,
		    transaction_id = CASE WHEN ? = '' THEN transaction_id ELSE ? END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`

	queryFillPaymentTransactionId = `
		UPDATE payments
		SET transaction_id = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND transaction_id = ''`

	// Gateway event queries
	queryInsertGatewayEvent = `
		INSERT INTO gateway_events (id, type, payment_id) VALUES (?, ?, ?)`
)
