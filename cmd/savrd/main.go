package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	configs "github.com/savr-app/savr/pkg/configs/api"
	kredis "github.com/savr-app/savr/pkg/conn/redis"
	"github.com/savr-app/savr/pkg/conn/storage"
	"github.com/savr-app/savr/pkg/domain/auth"
	"github.com/savr-app/savr/pkg/domain/ingredients/matcher"
	kdb "github.com/savr-app/savr/pkg/domain/savr/db"
	kpg "github.com/savr-app/savr/pkg/domain/savr/db/postgres"
	"github.com/savr-app/savr/pkg/embedding"
	"github.com/savr-app/savr/pkg/utils/echoutil"
	"github.com/savr-app/savr/pkg/utils/filewatch"

	"github.com/savr-app/savr/cmd/savrd/handlers"
)

func main() {

	configPath := flag.String(
		"config", os.Getenv("SAVR_API_CONFIG"), "api server config path",
	)
	schemaRepo := flag.String(
		"schema-repo", os.Getenv("SAVR_SCHEMA"), "schema repository path",
	)
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	flag.Parse()

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	conf, err := configs.LoadApiConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	{
		// watch config; restart on change
		wctx, cancel, err := filewatch.UntilModifyContext(context.Background(), *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		context.AfterFunc(wctx, func() {
			log.Println("config file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	ctx := context.Background()
	db, err := getDBAccesor(ctx, conf.DBURI, *schemaRepo)
	if err != nil {
		log.Fatalf("can not connect to database: %s", err)
	}
	defer db.Close()

	{
		// requests fail fast while the schema is outdated
		sctx, cancel := db.Schema().Context(ctx)
		defer cancel()
		ctx = sctx
	}

	store, err := storage.New(conf.Storage)
	if err != nil {
		log.Fatalf("can not connect to object storage: %s", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatalf("can not prepare bucket: %s", err)
	}
	urlOf := store.PublicUrl

	queue := kredis.Connect(conf.Redis)
	defer queue.Close()

	issuer := auth.NewIssuer(
		[]byte(conf.Token.Secret), conf.Token.AccessTTL, conf.Token.RefreshTTL,
	)
	loggedIn := auth.Middleware(issuer)

	match := matcher.New(embedding.New(conf.Embedding), db.Ingredients())

	api := root("/api")

	// handlers
	{
		e.POST(api("auth/register"), handlers.RegisterHandler(db.Users(), issuer, urlOf))
		e.POST(api("auth/login"), handlers.LoginHandler(db.Users(), issuer))
		e.POST(api("auth/token/refresh"), handlers.RefreshHandler(issuer))

		e.GET(api("auth/profile"), handlers.GetMyProfileHandler(db.Users(), urlOf), loggedIn)
		e.PUT(api("auth/profile"), handlers.UpdateProfileHandler(db.Users(), urlOf), loggedIn)
		e.POST(api("auth/profile/avatar"), handlers.AvatarPresignHandler(store), loggedIn)
		e.POST(api("auth/profile/avatar/confirm"), handlers.AvatarConfirmHandler(db.Users(), store), loggedIn)

		e.GET(api("auth/search"), handlers.SearchHandler(db.Users(), db.Recipes(), urlOf), loggedIn)
		e.GET(api("auth/complices"), handlers.ComplicesHandler(db.Users(), urlOf), loggedIn)

		e.GET(api("auth/notifications"), handlers.NotificationsHandler(db.Users(), urlOf), loggedIn)
		e.GET(api("auth/notifications/unread-count"), handlers.UnreadCountHandler(db.Users()), loggedIn)
		e.POST(api("auth/notifications/:id/read"), handlers.MarkNotificationReadHandler(db.Users()), loggedIn)
		e.POST(api("auth/notifications/read-all"), handlers.MarkAllNotificationsReadHandler(db.Users()), loggedIn)
	}

	{
		e.GET(api("users/:id"), handlers.GetProfileHandler(db.Users(), urlOf), loggedIn)
		e.POST(api("users/:id/follow"), handlers.FollowHandler(db.Users()), loggedIn)
		e.DELETE(api("users/:id/follow"), handlers.UnfollowHandler(db.Users()), loggedIn)
	}

	{
		e.GET(api("recipes"), handlers.FindRecipeHandler(db.Recipes(), db.Users(), urlOf, false), loggedIn)
		e.POST(api("recipes"), handlers.RecipeRegisterHandler(db.Recipes(), db.Users(), match, urlOf), loggedIn)
		e.GET(api("recipes/mine"), handlers.FindRecipeHandler(db.Recipes(), db.Users(), urlOf, true), loggedIn)
		e.GET(api("recipes/:id"), handlers.GetRecipeHandler(db.Recipes(), db.Users(), urlOf), loggedIn)
		e.PUT(api("recipes/:id"), handlers.RecipeUpdateHandler(db.Recipes(), db.Users(), match, urlOf), loggedIn)
		e.DELETE(api("recipes/:id"), handlers.RecipeDeleteHandler(db.Recipes(), store), loggedIn)
		e.POST(api("recipes/:id/image"), handlers.RecipeImagePresignHandler(db.Recipes(), store), loggedIn)
		e.POST(api("recipes/:id/image/confirm"), handlers.RecipeImageConfirmHandler(db.Recipes(), store), loggedIn)

		e.POST(api("recipes/import"), handlers.ImportTextHandler(db.Imports(), queue), loggedIn)
		e.POST(api("recipes/import-url"), handlers.ImportUrlHandler(db.Imports(), queue), loggedIn)
		e.GET(api("recipe-imports"), handlers.ListImportsHandler(db.Imports()), loggedIn)
		e.GET(api("recipe-imports/:id"), handlers.GetImportHandler(db.Imports()), loggedIn)
	}

	{
		e.GET(api("ingredients"), handlers.ListIngredientsHandler(db.Ingredients()), loggedIn)
		e.GET(api("ingredients/search"), handlers.SearchIngredientsHandler(db.Ingredients()), loggedIn)
	}

	{
		e.POST(api("meal-plans"), handlers.MealPlanRegisterHandler(db.MealPlans(), db.Users(), urlOf), loggedIn)
		e.GET(api("meal-plans/by-date"), handlers.MealPlansByDateHandler(db.MealPlans(), db.Users(), urlOf), loggedIn)
		e.GET(api("meal-plans/by-week"), handlers.MealPlansByWeekHandler(db.MealPlans(), db.Users(), urlOf), loggedIn)
		e.GET(api("meal-plans/shared-with-me"), handlers.SharedWithMeHandler(db.MealPlans(), db.Users(), urlOf), loggedIn)
		e.GET(api("meal-plans/:id"), handlers.GetMealPlanHandler(db.MealPlans(), db.Users(), urlOf), loggedIn)
		e.PUT(api("meal-plans/:id"), handlers.MealPlanUpdateHandler(db.MealPlans(), db.Users(), urlOf), loggedIn)
		e.DELETE(api("meal-plans/:id"), handlers.MealPlanDeleteHandler(db.MealPlans()), loggedIn)
		e.POST(api("meal-plans/:id/confirm"), handlers.MealPlanConfirmHandler(db.MealPlans(), db.Users(), urlOf), loggedIn)
		e.POST(api("meal-plans/:id/invite"), handlers.InviteHandler(db.MealPlans(), db.Users(), urlOf), loggedIn)

		e.GET(api("meal-invitations"), handlers.InvitationsHandler(db.MealPlans(), db.Users(), urlOf, false), loggedIn)
		e.GET(api("meal-invitations/pending"), handlers.InvitationsHandler(db.MealPlans(), db.Users(), urlOf, true), loggedIn)
		e.POST(api("meal-invitations/:id/accept"), handlers.RespondInvitationHandler(db.MealPlans(), db.Users(), urlOf, true), loggedIn)
		e.POST(api("meal-invitations/:id/decline"), handlers.RespondInvitationHandler(db.MealPlans(), db.Users(), urlOf, false), loggedIn)
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	e.Logger.Fatal(e.Start(":" + conf.ServerPort))
}

func getDBAccesor(ctx context.Context, dburi string, schemaRepo string) (kdb.SavrDatabase, error) {
	return kpg.New(ctx, dburi, kpg.WithSchemaRepository(schemaRepo))
}

// root creates an api URL factory: it receives path parts relative to
// the root and returns the full, "/" terminated path.
func root(base string) func(...string) string {
	return func(s ...string) string {
		parts := make([]string, len(s)+1)
		parts[0] = base
		copy(parts[1:], s)
		return path.Join(parts...) + "/"
	}
}
