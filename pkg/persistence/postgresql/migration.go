package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow definitions. Trigger, conditions and actions are stored
			-- as their JSON envelopes; the engine decodes them by type tag.
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				agency_id VARCHAR(255),
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				trigger JSONB NOT NULL,
				conditions JSONB NOT NULL DEFAULT '[]',
				actions JSONB NOT NULL DEFAULT '[]',
				active BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_agency_id ON workflows(agency_id);
			CREATE INDEX idx_workflows_active ON workflows(active);

			-- Run records. A paused run keeps status 'running' and carries
			-- resume_at; the scheduler polls on (status, resume_at).
			CREATE TABLE workflow_runs (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				contact_id VARCHAR(255),
				transaction_id VARCHAR(255),
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'completed', 'failed')),
				current_action_index INT NOT NULL DEFAULT 0,
				error TEXT,
				resume_at TIMESTAMP WITH TIME ZONE,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_runs_workflow_id ON workflow_runs(workflow_id);
			CREATE INDEX idx_workflow_runs_status ON workflow_runs(status);
			CREATE INDEX idx_workflow_runs_resume_at ON workflow_runs(resume_at);

			-- CRM records the action executor writes.
			CREATE TABLE contacts (
				id VARCHAR(255) PRIMARY KEY,
				assigned_to VARCHAR(255),
				tags JSONB NOT NULL DEFAULT '[]',
				fields JSONB NOT NULL DEFAULT '{}',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE transactions (
				id VARCHAR(255) PRIMARY KEY,
				fields JSONB NOT NULL DEFAULT '{}'
			);

			CREATE TABLE tasks (
				id VARCHAR(255) PRIMARY KEY,
				contact_id VARCHAR(255),
				transaction_id VARCHAR(255),
				title TEXT NOT NULL,
				follow_up BOOLEAN NOT NULL DEFAULT false,
				due_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_tasks_contact_id ON tasks(contact_id);
			CREATE INDEX idx_tasks_due_at ON tasks(due_at);

			CREATE TABLE notes (
				id VARCHAR(255) PRIMARY KEY,
				contact_id VARCHAR(255),
				agent_id VARCHAR(255),
				body TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_notes_contact_id ON notes(contact_id);

			CREATE TABLE outbound_messages (
				id VARCHAR(255) PRIMARY KEY,
				contact_id VARCHAR(255),
				channel VARCHAR(10) NOT NULL CHECK (channel IN ('email', 'sms')),
				template_id VARCHAR(255) NOT NULL,
				subject TEXT,
				body TEXT,
				queued_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_outbound_messages_contact_id ON outbound_messages(contact_id);

			CREATE TABLE social_posts (
				id VARCHAR(255) PRIMARY KEY,
				platforms JSONB NOT NULL DEFAULT '[]',
				content TEXT NOT NULL,
				scheduled_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
		`,
	}
}
