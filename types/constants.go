package types

const (
	FIREBASE_POSTS_COLLECTION                  = "posts"
	FIREBASE_POSTS_FIELDS_ID                   = "id"
	FIREBASE_POSTS_FIELDS_DESCRIPTION          = "description"
	FIREBASE_POSTS_FIELDS_MEDIA                = "media"
	FIREBASE_POSTS_FIELDS_MEDIA_PATHS          = "mediaPaths"
	FIREBASE_POSTS_FIELDS_OWNER_ID             = "ownerId"
	FIREBASE_POSTS_FIELDS_LIKES                = "likes"
	FIREBASE_POSTS_FIELDS_COMMENTS             = "comments"
	FIREBASE_POSTS_FIELDS_CREATED_AT           = "createdAt"
	FIREBASE_POSTS_FIELDS_UPDATED_AT           = "updatedAt"
	FIREBASE_USERS_COLLECTION                  = "users"
	FIREBASE_USERS_FIELDS_EMAIL                = "email"
	FIREBASE_USERS_FIELDS_SAVED_POSTS          = "savedPosts"
	FIREBASE_MESSAGING_TOKEN_COLLECTION        = "registrationTokens"
	FIREBASE_MESSAGING_TOKEN_FIELDS_TOKEN      = "token"
	FIREBASE_MESSAGING_TOKEN_FIELDS_CLIENT     = "clientId"
	FIREBASE_MESSAGING_TOKEN_FIELDS_UPDATED_AT = "updatedAt"
	FIREBASE_STORAGE_MEDIA_FOLDER              = "media/"
	FIREBASE_STORAGE_DOWNLOAD_TOKEN_KEY        = "firebaseStorageDownloadTokens"
	FIREBASE_STORAGE_DOWNLOAD_URL_TEMPLATE     = "https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s"
	CLOUD_TASKS_HANDLER_PATH                   = "/tasks/notifications"
	CLOUD_TASKS_QUEUE_PATH_TEMPLATE            = "projects/%s/locations/%s/queues/%s"
	CONTEXT_ACTOR_ID_KEY                       = "actorId"
	CONTEXT_MEDIA_BLOBS_KEY                    = "mediaBlobs"
	IDEMPOTENCY_KEY_HEADER                     = "Idempotency-Key"
	IDEMPOTENCY_REPLAYED_HEADER                = "Idempotent-Replayed"
	TASK_SECRET_HEADER                         = "X-Task-Secret"
	MEDIA_FORM_FIELD                           = "media"
	MAX_MEDIA_PER_POST                         = 10
	MAX_IMAGE_SIZE_BYTES                       = 5 * 1024 * 1024
	MAX_VIDEO_SIZE_BYTES                       = 50 * 1024 * 1024
	MIN_USER_AGE                               = 50
)
