package repository

// Repositories is a container for all repository instances.
// postgres.NewRepositories and sqlite.NewRepositories fill it in.
type Repositories struct {
	Project ProjectRepository
	Commit  CommitRepository
	Issue   IssueRepository
	Comment CommentRepository
	User    UserRepository
}
