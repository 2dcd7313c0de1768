package postgres

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE state_records (
				state_key VARCHAR(1024) PRIMARY KEY,
				collections VARCHAR(1024) NOT NULL,
				workflow VARCHAR(255) NOT NULL,
				execution VARCHAR(1024),
				status VARCHAR(50) NOT NULL CHECK (status IN ('PROCESSING', 'COMPLETED', 'FAILED', 'INVALID')),
				last_error TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_state_records_status ON state_records(status);
			CREATE INDEX idx_state_records_workflow ON state_records(workflow);
			CREATE INDEX idx_state_records_updated_at ON state_records(updated_at);
		`,
	}
}
