package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

Topic is a data model for a fixed content category

Example: "AI/ML", "DevOps"

Id: primary key, use to identify a topic
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Name: unique display name
Description: one sentence description, also fed to the embedding model so that
		classification compares articles against something richer than a bare label
Embedding: serialized embedding vector of Name + Description, populated lazily
		by the classifier, null until the first successful embedding call

Topics are seeded once at startup from the fixed catalogue below and never
deleted at runtime.

*/

type Topic struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	Name        string `gorm:"uniqueIndex"`
	Description string
	Embedding   datatypes.JSON
}

// SeededTopic is one entry of the startup catalogue.
type SeededTopic struct {
	Name        string
	Description string
}

// TopicCatalogue is the fixed set of canonical topics. Keyword rules for the
// classifier fallback are keyed by these names, so renaming an entry here
// requires updating classifier rules as well.
var TopicCatalogue = []SeededTopic{
	{Name: "AI/ML", Description: "Artificial intelligence, machine learning, LLMs, neural networks and data science"},
	{Name: "Engineering", Description: "General software engineering practices, architecture and programming languages"},
	{Name: "DevOps", Description: "Infrastructure, CI/CD, Kubernetes, cloud platforms and site reliability"},
	{Name: "Security", Description: "Application security, vulnerabilities, cryptography and privacy"},
	{Name: "Web Development", Description: "Frontend and backend web development, frameworks and browsers"},
	{Name: "Mobile", Description: "iOS, Android and cross platform mobile development"},
	{Name: "Design", Description: "Product design, UX, UI and design tooling such as Figma"},
	{Name: "Product", Description: "Product management, growth, metrics and user research"},
	{Name: "Startups", Description: "Startup ecosystem, founders, fundraising and venture capital"},
	{Name: "Data", Description: "Databases, data engineering, analytics and storage systems"},
	{Name: "Open Source", Description: "Open source projects, licenses, maintainers and community"},
	{Name: "Career", Description: "Career growth, hiring, management and engineering culture"},
}

// GenericTopicName is where the fallback classifier parks content when no
// keyword rule matches. Must exist in TopicCatalogue.
const GenericTopicName = "Engineering"
