package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/constants"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/permissions"
)

func TestProjectService_CreateAndGet(t *testing.T) {
	env := setupServiceTestEnv(t)

	project, err := env.projectService.Create(env.owner.ID, "  New Project  ", "desc")
	require.NoError(t, err)
	require.Equal(t, "New Project", project.Name)
	require.Equal(t, env.owner.ID, project.OwnerID)
	require.Equal(t, env.owner.Name, project.Owner.Name)

	_, err = env.projectService.Create(env.owner.ID, "   ", "")
	require.ErrorIs(t, err, ErrProjectNameEmpty)

	_, err = env.projectService.Create(env.owner.ID, strings.Repeat("n", constants.MaxTitleLength+1), "")
	require.ErrorIs(t, err, ErrProjectNameTooLong)

	_, err = env.projectService.Update(project.ID, "Fine", strings.Repeat("d", constants.MaxDescriptionLength+1))
	require.ErrorIs(t, err, ErrDescriptionTooLong)

	fetched, members, err := env.projectService.Get(project.ID)
	require.NoError(t, err)
	require.Equal(t, project.ID, fetched.ID)
	require.Empty(t, members)

	_, _, err = env.projectService.Get(99999)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_ListReportsEffectivePermissions(t *testing.T) {
	env := setupServiceTestEnv(t)

	ownerProjects, err := env.projectService.List(env.owner.ID)
	require.NoError(t, err)
	require.Len(t, ownerProjects, 1)
	require.Equal(t, permissions.RoleOwner, ownerProjects[0].UserRole)
	require.True(t, ownerProjects[0].CanEdit)
	require.True(t, ownerProjects[0].CanDelete)
	require.Equal(t, env.owner.Name, ownerProjects[0].OwnerName)

	editorProjects, err := env.projectService.List(env.editor.ID)
	require.NoError(t, err)
	require.Len(t, editorProjects, 1)
	require.Equal(t, models.ProjectRoleMember, editorProjects[0].UserRole)
	require.True(t, editorProjects[0].CanEdit)
	require.False(t, editorProjects[0].CanDelete)

	outsider := env.createUser(t, "outsider@example.com", "Outsider", models.RoleUser)
	none, err := env.projectService.List(outsider.ID)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestProjectService_UpdateAndDelete(t *testing.T) {
	env := setupServiceTestEnv(t)

	updated, err := env.projectService.Update(env.project.ID, "Renamed", "new desc")
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, "new desc", updated.Description)

	task := env.createTask(t, "Will vanish")
	_, err = env.taskService.AddComment(task.ID, env.editor, "gone soon")
	require.NoError(t, err)

	require.NoError(t, env.projectService.Delete(env.project.ID))

	var tasks, members, comments int64
	require.NoError(t, env.db.Model(&models.Task{}).Where("project_id = ?", env.project.ID).Count(&tasks).Error)
	require.NoError(t, env.db.Model(&models.ProjectMember{}).Where("project_id = ?", env.project.ID).Count(&members).Error)
	require.NoError(t, env.db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&comments).Error)
	require.Zero(t, tasks)
	require.Zero(t, members)
	require.Zero(t, comments)

	require.ErrorIs(t, env.projectService.Delete(env.project.ID), ErrProjectNotFound)
}

func TestProjectService_AddMember(t *testing.T) {
	env := setupServiceTestEnv(t)
	newcomer := env.createUser(t, "newcomer@example.com", "Newcomer", models.RoleUser)

	member, err := env.projectService.AddMember(env.project.ID, "Newcomer@Example.com", MemberInput{
		Role:    models.ProjectRoleMember,
		CanEdit: true,
	})
	require.NoError(t, err)
	require.Equal(t, newcomer.ID, member.UserID)
	require.True(t, member.CanEdit)

	_, err = env.projectService.AddMember(env.project.ID, "newcomer@example.com", MemberInput{})
	require.ErrorIs(t, err, ErrMemberExists)

	_, err = env.projectService.AddMember(env.project.ID, "owner@example.com", MemberInput{})
	require.ErrorIs(t, err, ErrMemberIsOwner)

	_, err = env.projectService.AddMember(env.project.ID, "nobody@example.com", MemberInput{})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.projectService.AddMember(env.project.ID, "newcomer@example.com", MemberInput{Role: "boss"})
	require.ErrorIs(t, err, ErrInvalidProjectRole)
}

func TestProjectService_InviteMember(t *testing.T) {
	env := setupServiceTestEnv(t)

	member, err := env.projectService.InviteMember(env.project.ID, InviteInput{
		Email:    "invited@example.com",
		Name:     "Invited",
		Password: "longenough1",
		Member:   MemberInput{Role: models.ProjectRoleViewer},
	})
	require.NoError(t, err)
	require.Equal(t, models.ProjectRoleViewer, member.Role)

	created, err := env.userRepo.FindByEmail("invited@example.com")
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, created.Role)
	require.True(t, created.IsActive)

	_, err = env.projectService.InviteMember(env.project.ID, InviteInput{
		Email:    "editor@example.com",
		Name:     "Editor Again",
		Password: "longenough1",
	})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.projectService.InviteMember(env.project.ID, InviteInput{
		Email:    "another@example.com",
		Name:     "Another",
		Password: "short",
	})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestProjectService_UpdateAndRemoveMember(t *testing.T) {
	env := setupServiceTestEnv(t)

	err := env.projectService.UpdateMember(env.project.ID, env.viewer.ID, MemberInput{
		Role:      models.ProjectRoleAdmin,
		CanEdit:   true,
		CanDelete: true,
	})
	require.NoError(t, err)

	stored, err := env.projectRepo.FindMember(env.project.ID, env.viewer.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProjectRoleAdmin, stored.Role)
	require.True(t, stored.CanEdit)
	require.True(t, stored.CanDelete)

	outsider := env.createUser(t, "outsider@example.com", "Outsider", models.RoleUser)
	err = env.projectService.UpdateMember(env.project.ID, outsider.ID, MemberInput{Role: models.ProjectRoleMember})
	require.ErrorIs(t, err, ErrMemberNotFound)

	require.NoError(t, env.projectService.RemoveMember(env.project.ID, env.viewer.ID))
	require.ErrorIs(t, env.projectService.RemoveMember(env.project.ID, env.viewer.ID), ErrMemberNotFound)
}
